package core

import "io"

// Role 资源角色，决定 key 中的后缀
type Role string

const (
	RolePreview Role = "og"    // 爬虫 / 聊天软件预览看到的图
	RolePayload Role = "troll" // 真人点开后看到的图
)

// UploadFile 一个待上传的文件
// Content 必须可 Seek：校验阶段可能已经读过一部分，上传前要回到开头
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64 // 未知时为 -1
	Content     io.ReadSeeker
}
