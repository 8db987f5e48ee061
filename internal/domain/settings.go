package domain

import "strings"

// 设置分类规则：按顺序对键做子串匹配，首个命中者生效。
// 顺序即优先级，"backup_retention_rate" 命中 Maintenance 而非 Limits。

// SettingCategoryRule 关键字 -> 分类
type SettingCategoryRule struct {
	Keywords []string
	Category string
}

// SettingCategoryRules 返回按优先级排列的分类规则表
func SettingCategoryRules() []SettingCategoryRule {
	return []SettingCategoryRule{
		{Keywords: []string{"smtp"}, Category: "SMTP"},
		{Keywords: []string{"spam"}, Category: "Spam Filter"},
		{Keywords: []string{"virus"}, Category: "Antivirus"},
		{Keywords: []string{"quota", "size"}, Category: "Storage"},
		{Keywords: []string{"backup", "retention"}, Category: "Maintenance"},
		{Keywords: []string{"rate", "limit"}, Category: "Limits"},
		{Keywords: []string{"dkim", "spf", "dmarc"}, Category: "Security"},
	}
}

// SettingCategoryGeneral 兜底分类
const SettingCategoryGeneral = "General"

// SettingCategory 返回设置键所属的分类
func SettingCategory(key string) string {
	key = strings.ToLower(key)
	for _, rule := range SettingCategoryRules() {
		for _, kw := range rule.Keywords {
			if strings.Contains(key, kw) {
				return rule.Category
			}
		}
	}
	return SettingCategoryGeneral
}

// SettingGroup 设置列表页的一个分类分组
type SettingGroup struct {
	Category string          `json:"category"`
	Settings []SystemSetting `json:"settings"`
}
