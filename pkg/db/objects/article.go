package objects

// Scheme 记录的字段方案
// 早期版本把图片存在本地 static/uploads 下，只记录文件名；现在存对象存储，记录 key
type Scheme string

const (
	SchemeCurrent Scheme = "current" // preview_asset_key + payload_asset_key
	SchemeLegacy  Scheme = "legacy"  // og_filename + troll_filename
	SchemeUnknown Scheme = "unknown" // 两套字段都不完整，解析 URL 时按"无图"处理
)

// ArticleRecord 对应 articles.json 中的一条记录，以 id 为键
// 新旧两套字段共存于同一份文档，读取方通过 Scheme() 判断
type ArticleRecord struct {
	// ID 10 位小写十六进制
	ID string `json:"id"`

	// 标题，创建后不可变
	Headline string `json:"headline"`

	// 对象存储 key，例如 articles/3f9a2b7c1d_og.png
	PreviewAssetKey string `json:"preview_asset_key,omitempty"`
	PayloadAssetKey string `json:"payload_asset_key,omitempty"`

	// 旧方案：本地上传目录下的文件名
	OgFilename    string `json:"og_filename,omitempty"`
	TrollFilename string `json:"troll_filename,omitempty"`
}

// Scheme 判断记录使用的字段方案，新方案优先
func (r *ArticleRecord) Scheme() Scheme {
	switch {
	case r.PreviewAssetKey != "" && r.PayloadAssetKey != "":
		return SchemeCurrent
	case r.OgFilename != "" && r.TrollFilename != "":
		return SchemeLegacy
	default:
		return SchemeUnknown
	}
}
