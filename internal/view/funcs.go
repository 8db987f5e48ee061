// Package view 提供模板格式化辅助函数。
// 这些是展示层兜底：任何转换失败或除零都返回 0，绝不让模板渲染报错。
package view

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"unicode"
)

// FuncMap 返回注册给 HTML 模板的函数表
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatBytes":       FormatBytes,
		"percentage":        Percentage,
		"div":               Div,
		"mul":               Mul,
		"formatSettingName": FormatSettingName,
	}
}

// toFloat 尽力把任意值转成 float64
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Percentage 计算 value 占 total 的百分比，total 为 0 或输入不可转换时返回 0
func Percentage(value, total interface{}) float64 {
	v, ok := toFloat(value)
	if !ok {
		return 0
	}
	t, ok := toFloat(total)
	if !ok || t == 0 {
		return 0
	}
	return v / t * 100
}

// Div 除法，除零或输入不可转换时返回 0
func Div(value, arg interface{}) float64 {
	v, ok := toFloat(value)
	if !ok {
		return 0
	}
	a, ok := toFloat(arg)
	if !ok || a == 0 {
		return 0
	}
	return v / a
}

// Mul 乘法，输入不可转换时返回 0
func Mul(value, arg interface{}) float64 {
	v, ok := toFloat(value)
	if !ok {
		return 0
	}
	a, ok := toFloat(arg)
	if !ok {
		return 0
	}
	return v * a
}

// FormatBytes 字节数转人类可读单位：取 {B, KB, MB, GB, TB} 中
// 使缩放值小于 1024 的最大单位，保留一位小数；0 渲染为 "0 B"。
func FormatBytes(v interface{}) string {
	f, ok := toFloat(v)
	if !ok || f == 0 {
		return "0 B"
	}

	units := []string{"B", "KB", "MB", "GB", "TB"}
	idx := 0
	for f >= 1024 && idx < len(units)-1 {
		f /= 1024
		idx++
	}
	return fmt.Sprintf("%.1f %s", f, units[idx])
}

// FormatSettingName 把设置键格式化为可读名称："smtp_max_size" -> "Smtp Max Size"
func FormatSettingName(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
