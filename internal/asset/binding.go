package asset

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iceymoss/og-prank/internal/core"
	"github.com/iceymoss/og-prank/internal/metrics"
	xerrors "github.com/iceymoss/og-prank/pkg/errors"
	"github.com/iceymoss/og-prank/pkg/logger"
	"github.com/iceymoss/og-prank/pkg/storage"

	"go.uber.org/zap"
)

const (
	DefaultPrefix        = "articles"
	DefaultUploadTimeout = 30 * time.Second
)

// allowedExt 允许上传的图片后缀
var allowedExt = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"webp": {},
}

// Extension 取文件名最后一个 "." 之后的部分并转小写；没有 "." 时 ok 为 false
func Extension(filename string) (ext string, ok bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	return strings.ToLower(filename[i+1:]), true
}

// Allowed 判断文件名后缀是否在白名单里，纯后缀匹配
func Allowed(filename string) bool {
	ext, ok := Extension(filename)
	if !ok {
		return false
	}
	_, ok = allowedExt[ext]
	return ok
}

// Key 由文章 ID 和角色推导出存储 key：<prefix>/<id>_<role>.<ext>
func Key(prefix, articleID string, role core.Role, ext string) string {
	name := fmt.Sprintf("%s_%s.%s", articleID, role, ext)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Binding 文章图片与对象存储的绑定
// key 由 ID + 角色确定，不需要额外索引，不同文章 / 角色之间天然不会冲突
type Binding struct {
	storage       storage.FileStorage
	prefix        string
	publicBaseURL string
	uploadTimeout time.Duration
}

func NewBinding(fs storage.FileStorage, prefix, publicBaseURL string, uploadTimeout time.Duration) *Binding {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	return &Binding{
		storage:       fs,
		prefix:        prefix,
		publicBaseURL: publicBaseURL,
		uploadTimeout: uploadTimeout,
	}
}

// Put 校验后缀并上传，返回存储 key
// 上传失败（网络、鉴权、超时）返回 StorageError，不在这里重试
func (b *Binding) Put(ctx context.Context, articleID string, role core.Role, file *core.UploadFile) (string, error) {
	if file == nil || file.Content == nil {
		return "", xerrors.NewValidation(fmt.Sprintf("missing %s file", role))
	}
	ext, ok := Extension(file.Filename)
	if !ok || !Allowed(file.Filename) {
		return "", xerrors.NewValidation(fmt.Sprintf("unsupported %s image type: %q", role, file.Filename))
	}

	key := Key(b.prefix, articleID, role, ext)

	// 校验阶段可能读过内容，回到开头
	if _, err := file.Content.Seek(0, io.SeekStart); err != nil {
		return "", xerrors.NewStorage("rewind upload", err)
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}
	size := file.Size
	if size <= 0 {
		size = -1
	}

	ctx, cancel := context.WithTimeout(ctx, b.uploadTimeout)
	defer cancel()

	start := time.Now()
	err := b.storage.PutObject(ctx, key, file.Content, size, contentType)
	metrics.AssetUploadDuration.WithLabelValues(string(role)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AssetUploadFailures.WithLabelValues(string(role)).Inc()
		logger.Error("asset upload failed",
			zap.String("article_id", articleID),
			zap.String("key", key),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", xerrors.NewStorage("upload "+string(role)+" image", err)
	}

	logger.Info("asset uploaded",
		zap.String("article_id", articleID),
		zap.String("key", key),
		zap.String("content_type", contentType),
	)
	return key, nil
}

// URLFor 公开访问地址，纯字符串拼接
func (b *Binding) URLFor(key string) string {
	return storage.JoinURL(b.publicBaseURL, key)
}
