package storage

import (
	"context"
	"io"
	"strings"
)

// DefaultContentType 上传时未声明 Content-Type 使用的类型
const DefaultContentType = "application/octet-stream"

// FileStorage 对象存储接口
// 通过实现此接口，可以切换不同的存储服务（本地存储、MinIO、S3 等）
type FileStorage interface {
	// PutObject 以指定 key 写入对象
	// size 未知时传 -1
	PutObject(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GetFileURL 获取 key 对应的公开访问 URL
	GetFileURL(key string) string
}

// JoinURL 拼接公开访问地址：去掉 base 末尾的 "/"、key 开头的 "/"，中间用一个 "/" 连接
// 纯字符串拼接，不发起网络请求
func JoinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
