package sql

import (
	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// ========== Domain Repository ==========

// CreateDomain 创建域名
func (s *Store) CreateDomain(d *domain.Domain) error {
	return s.gormDB.Create(d).Error
}

// GetDomainByID 根据 ID 获取域名
func (s *Store) GetDomainByID(id uint) (*domain.Domain, error) {
	var d domain.Domain
	if err := s.gormDB.First(&d, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &d, nil
}

// UpdateDomain 保存域名记录
func (s *Store) UpdateDomain(d *domain.Domain) error {
	return s.gormDB.Save(d).Error
}

// ListDomainsWithCounts 域名列表，附带引用用户数，按域名字母序
func (s *Store) ListDomainsWithCounts() ([]domain.DomainWithCount, error) {
	var rows []domain.DomainWithCount
	err := s.gormDB.Model(&domain.Domain{}).
		Select("domains.*, COUNT(users.id) AS user_count").
		Joins("LEFT JOIN users ON users.domain_id = domains.id").
		Group("domains.id").
		Order("domains.domain ASC").
		Scan(&rows).Error
	return rows, err
}

// ListActiveDomains 激活域名，按字母序（用户表单的下拉选项）
func (s *Store) ListActiveDomains() ([]domain.Domain, error) {
	var domains []domain.Domain
	err := s.gormDB.Where("active = ?", true).Order("domain ASC").Find(&domains).Error
	return domains, err
}

// CountActiveDomains 激活域名数
func (s *Store) CountActiveDomains() (int64, error) {
	var count int64
	err := s.gormDB.Model(&domain.Domain{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// ========== Alias Repository ==========

// ListAliases 别名列表，联域名表，按 source 排序
func (s *Store) ListAliases() ([]domain.AliasWithDomain, error) {
	var rows []domain.AliasWithDomain
	err := s.gormDB.Model(&domain.Alias{}).
		Select("aliases.*, domains.domain AS domain_name").
		Joins("JOIN domains ON domains.id = aliases.domain_id").
		Order("aliases.source ASC").
		Scan(&rows).Error
	return rows, err
}

// CountActiveAliases 激活别名数
func (s *Store) CountActiveAliases() (int64, error) {
	var count int64
	err := s.gormDB.Model(&domain.Alias{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// ========== Quota Repository ==========

// GetQuotaUsage 获取用户用量记录
func (s *Store) GetQuotaUsage(userID uint) (*domain.QuotaUsage, error) {
	var usage domain.QuotaUsage
	if err := s.gormDB.Where("user_id = ?", userID).First(&usage).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &usage, nil
}

// TotalBytesUsed 全部用量记录的 bytes_used 之和，空表返回 0
func (s *Store) TotalBytesUsed() (int64, error) {
	var total int64
	err := s.gormDB.Model(&domain.QuotaUsage{}).
		Select("COALESCE(SUM(bytes_used), 0)").
		Scan(&total).Error
	return total, err
}

// ========== Setting Repository ==========

// keyColumn "key" 在两种方言里都是保留字，按驱动加引号
func (s *Store) keyColumn() string {
	if s.driverName == "postgres" {
		return `"key"`
	}
	return "`key`"
}

// ListSettings 全部系统设置，按键排序
func (s *Store) ListSettings() ([]domain.SystemSetting, error) {
	var settings []domain.SystemSetting
	err := s.gormDB.Order(s.keyColumn() + " ASC").Find(&settings).Error
	return settings, err
}

// GetSetting 根据键获取设置
func (s *Store) GetSetting(key string) (*domain.SystemSetting, error) {
	var setting domain.SystemSetting
	if err := s.gormDB.Where(s.keyColumn()+" = ?", key).First(&setting).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &setting, nil
}

// UpdateSettingValue 覆盖设置值。值按原始字符串存储，不做类型标签校验。
func (s *Store) UpdateSettingValue(key, value string) error {
	res := s.gormDB.Model(&domain.SystemSetting{}).Where(s.keyColumn()+" = ?", key).
		Update("value", value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
