package storage

import (
	"errors"

	"koemail/admin/internal/domain"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("record not found")

// Store 管理控制台对共享邮件数据库的全部访问。
// 由 storage/sql（MySQL/PostgreSQL）和 storage/memory（开发与测试）实现。
type Store interface {
	// 用户
	CreateUserWithQuota(user *domain.User) error // 用户与零值用量记录在同一事务内写入
	GetUserByID(id uint) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	UpdatePassword(id uint, passwordHash string) error
	UpdateLastLogin(id uint) error
	DeleteUser(id uint) error
	ListUsers(search string, offset, limit int) ([]domain.UserWithUsage, int64, error)
	RecentUsers(limit int) ([]domain.User, error)
	CountActiveUsers() (int64, error)

	// 域名
	CreateDomain(d *domain.Domain) error
	GetDomainByID(id uint) (*domain.Domain, error)
	UpdateDomain(d *domain.Domain) error
	ListDomainsWithCounts() ([]domain.DomainWithCount, error)
	ListActiveDomains() ([]domain.Domain, error)
	CountActiveDomains() (int64, error)

	// 别名（本控制台只读，由外部邮件系统维护）
	ListAliases() ([]domain.AliasWithDomain, error)
	CountActiveAliases() (int64, error)

	// 配额用量
	GetQuotaUsage(userID uint) (*domain.QuotaUsage, error)
	TotalBytesUsed() (int64, error)

	// 系统设置
	ListSettings() ([]domain.SystemSetting, error)
	GetSetting(key string) (*domain.SystemSetting, error)
	UpdateSettingValue(key, value string) error

	Health() error
	Close() error
}
