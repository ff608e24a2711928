package web

import "embed"

// Templates 页面模板
//
//go:embed templates/*.html
var Templates embed.FS
