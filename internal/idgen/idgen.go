package idgen

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Length 文章 ID 长度：10 个十六进制字符，40 bit 熵
const Length = 10

// Allocate 生成文章 ID
// 取随机 UUID（v4，crypto/rand）的十六进制前 10 位；前 12 位不含版本号，全部是随机位。
// 这里不查库去重，碰撞概率靠熵保证，去重检查由调用方决定
func Allocate() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])[:Length]
}

// Valid 判断是否为合法格式的 ID（10 位小写十六进制）
func Valid(id string) bool {
	if len(id) != Length {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
