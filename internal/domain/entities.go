package domain

import "time"

// 本包中的实体直接映射邮件系统共享数据库的五张表。
// 字段含义是与外部邮件传输系统（MTA、投递、过滤）的契约，
// 列名不得在没有协调迁移的情况下更改。

// Domain 邮件域名（如 example.com），拥有用户和别名
type Domain struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"column:domain;uniqueIndex;type:varchar(255);not null"`
	Description string    `json:"description" gorm:"type:text"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Domain) TableName() string { return "domains" }

// User 邮箱账户
type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	Email        string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	PasswordHash string     `json:"-" gorm:"column:password;type:varchar(255);not null"` // bcrypt 哈希，不返回给前端
	Name         string     `json:"name" gorm:"type:varchar(255)"`
	DomainID     uint       `json:"domainId" gorm:"column:domain_id;not null;index"`
	Domain       *Domain    `json:"-" gorm:"foreignKey:DomainID;constraint:OnDelete:CASCADE"`
	QuotaBytes   int64      `json:"quota" gorm:"column:quota;default:1073741824"` // 默认 1 GiB
	Active       bool       `json:"active" gorm:"default:true"`
	Admin        bool       `json:"admin" gorm:"default:false"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" gorm:"column:last_login"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// QuotaGiB 返回以整 GiB 表示的配额上限
func (u *User) QuotaGiB() int64 {
	return BytesToGiB(u.QuotaBytes)
}

// Alias 域内的转发规则 source -> destination
type Alias struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Source      string    `json:"source" gorm:"type:varchar(255);not null"`
	Destination string    `json:"destination" gorm:"type:varchar(255);not null"`
	DomainID    uint      `json:"domainId" gorm:"column:domain_id;not null;index"`
	Domain      *Domain   `json:"-" gorm:"foreignKey:DomainID;constraint:OnDelete:CASCADE"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Alias) TableName() string { return "aliases" }

// QuotaUsage 每个用户恰好一条的用量记录。
// 本控制台只在创建用户时写入零值记录，之后由外部邮件系统维护。
type QuotaUsage struct {
	UserID       uint      `json:"userId" gorm:"column:user_id;primaryKey"`
	User         *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	BytesUsed    int64     `json:"bytesUsed" gorm:"default:0"`
	MessageCount int       `json:"messageCount" gorm:"default:0"`
	LastUpdated  time.Time `json:"lastUpdated" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (QuotaUsage) TableName() string { return "quota_usage" }

// SystemSetting 外部邮件系统消费的键值配置项
type SystemSetting struct {
	Key         string    `json:"key" gorm:"column:key;primaryKey;type:varchar(100)"`
	Value       string    `json:"value" gorm:"type:text"`
	Type        string    `json:"type" gorm:"column:type;type:varchar(20);default:'string'"` // 类型标签仅作展示，不做强制校验
	Description string    `json:"description" gorm:"type:text"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (SystemSetting) TableName() string { return "system_settings" }
