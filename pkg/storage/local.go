package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iceymoss/og-prank/pkg/logger"

	"go.uber.org/zap"
)

// LocalStorage 本地文件存储实现，开发环境和旧版 static/uploads 目录使用
type LocalStorage struct {
	basePath string // 基础存储路径，如 ./data/assets
	baseURL  string // 基础访问URL，如 http://localhost:8080/assets
}

// NewLocalStorage 创建本地文件存储实例
func NewLocalStorage(basePath, baseURL string) *LocalStorage {
	// 确保基础目录存在
	if err := os.MkdirAll(basePath, 0755); err != nil {
		logger.Error("创建存储目录失败", zap.String("path", basePath), zap.Error(err))
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  baseURL,
	}
}

// PutObject 写入 basePath/key
func (s *LocalStorage) PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	filePath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建文件夹失败: %w", err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("创建文件失败: %w", err)
	}

	// 复制文件内容，ctx 取消时中断
	if _, err := io.Copy(dst, &ctxReader{ctx: ctx, r: r}); err != nil {
		dst.Close()
		os.Remove(filePath) // 如果复制失败，删除已创建的文件
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(filePath)
		return fmt.Errorf("写入文件失败: %w", err)
	}

	logger.Debug("local object written",
		zap.String("key", key),
		zap.String("content_type", contentType),
	)
	return nil
}

// GetFileURL 获取文件的访问URL
func (s *LocalStorage) GetFileURL(key string) string {
	// 确保路径使用正斜杠（URL格式）
	urlPath := filepath.ToSlash(key)
	if s.baseURL == "" {
		return "/" + strings.TrimLeft(urlPath, "/")
	}
	return JoinURL(s.baseURL, urlPath)
}

// resolve 防止 key 中的 ".." 逃出 basePath
func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("非法的对象 key: %q", key)
	}
	return filepath.Join(s.basePath, clean), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
