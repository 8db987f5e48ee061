// Package web 内嵌管理后台的 HTML 模板
package web

import "embed"

// Templates 模板文件系统
//
//go:embed templates/*.html
var Templates embed.FS
