package domain

// 列表页使用的联表投影。

// UserWithUsage 用户行联合所属域名和配额用量
type UserWithUsage struct {
	User
	DomainName   string `json:"domain" gorm:"column:domain_name"`
	BytesUsed    int64  `json:"bytesUsed" gorm:"column:bytes_used"`
	MessageCount int    `json:"messageCount" gorm:"column:message_count"`
}

// UsagePercent 已用配额百分比（四舍五入到整数），配额为 0 时返回 0
func (u *UserWithUsage) UsagePercent() int {
	if u.QuotaBytes <= 0 {
		return 0
	}
	return int(float64(u.BytesUsed)/float64(u.QuotaBytes)*100 + 0.5)
}

// DomainWithCount 域名行联合引用它的用户数
type DomainWithCount struct {
	Domain
	UserCount int64 `json:"userCount" gorm:"column:user_count"`
}

// AliasWithDomain 别名行联合所属域名
type AliasWithDomain struct {
	Alias
	DomainName string `json:"domain" gorm:"column:domain_name"`
}

// DashboardStats 仪表盘聚合统计
type DashboardStats struct {
	Users        int64 `json:"users"`   // 激活用户数
	Domains      int64 `json:"domains"` // 激活域名数
	Aliases      int64 `json:"aliases"` // 激活别名数
	StorageBytes int64 `json:"storage"` // 全部 quota_usage.bytes_used 之和
}
