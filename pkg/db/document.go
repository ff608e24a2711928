package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrNotExist 文档尚未创建（首次运行）
var ErrNotExist = errors.New("document does not exist")

// Document 一份整体读写的持久化文档
// 文章库整体存成一个 JSON 对象，后端只需要支持整读整写
type Document interface {
	// Read 读取完整内容，不存在时返回 ErrNotExist
	Read(ctx context.Context) ([]byte, error)

	// Write 覆盖写入完整内容
	Write(ctx context.Context, data []byte) error

	// Preserve 在覆盖前保存一份无法解析的原始内容，返回备份位置
	Preserve(ctx context.Context, data []byte) (string, error)

	// Name 用于日志
	Name() string
}

// Locker 后端自带的跨进程互斥（例如 Redis），文件后端不实现
type Locker interface {
	// Lock 阻塞直到拿到锁或 ctx 结束，返回释放函数
	Lock(ctx context.Context) (unlock func(), err error)
}

// FileDocument 本地文件后端
type FileDocument struct {
	path string
}

func NewFileDocument(path string) *FileDocument {
	return &FileDocument{path: path}
}

func (d *FileDocument) Name() string {
	return "file:" + d.path
}

func (d *FileDocument) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	return data, nil
}

// Write 先写临时文件再 rename，避免进程中途退出留下半个文件
func (d *FileDocument) Write(ctx context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建文件夹失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(d.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换文件失败: %w", err)
	}
	return nil
}

func (d *FileDocument) Preserve(ctx context.Context, data []byte) (string, error) {
	backup := d.path + ".corrupt." + strconv.FormatInt(time.Now().UnixNano(), 10)
	if err := os.WriteFile(backup, data, 0644); err != nil {
		return "", fmt.Errorf("备份损坏文件失败: %w", err)
	}
	return backup, nil
}
