package memory

import (
	"sort"
	"time"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// ========== Domain ==========

// CreateDomain 创建域名
func (s *Store) CreateDomain(d *domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.domains {
		if existing.Name == d.Name {
			return ErrDuplicateDomain
		}
	}

	now := time.Now()
	d.ID = s.nextDomainID
	s.nextDomainID++
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	stored := *d
	s.domains[d.ID] = &stored
	return nil
}

// GetDomainByID 根据 ID 获取域名
func (s *Store) GetDomainByID(id uint) (*domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.domains[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

// UpdateDomain 保存域名
func (s *Store) UpdateDomain(d *domain.Domain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[d.ID]; !ok {
		return storage.ErrNotFound
	}
	d.UpdatedAt = time.Now()
	stored := *d
	s.domains[d.ID] = &stored
	return nil
}

// ListDomainsWithCounts 域名列表，附带用户数，按字母序
func (s *Store) ListDomainsWithCounts() ([]domain.DomainWithCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[uint]int64, len(s.domains))
	for _, u := range s.users {
		counts[u.DomainID]++
	}

	rows := make([]domain.DomainWithCount, 0, len(s.domains))
	for _, d := range s.domains {
		rows = append(rows, domain.DomainWithCount{Domain: *d, UserCount: counts[d.ID]})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return rows, nil
}

// ListActiveDomains 激活域名，按字母序
func (s *Store) ListActiveDomains() ([]domain.Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var domains []domain.Domain
	for _, d := range s.domains {
		if d.Active {
			domains = append(domains, *d)
		}
	}
	sort.Slice(domains, func(i, j int) bool { return domains[i].Name < domains[j].Name })
	return domains, nil
}

// CountActiveDomains 激活域名数
func (s *Store) CountActiveDomains() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, d := range s.domains {
		if d.Active {
			count++
		}
	}
	return count, nil
}

// ========== Alias ==========

// CreateAlias 写入别名。生产环境里别名由外部邮件系统维护，
// 这里提供写入口供开发数据和测试使用。
func (s *Store) CreateAlias(a *domain.Alias) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[a.DomainID]; !ok {
		return ErrDomainMissing
	}
	a.ID = s.nextAliasID
	s.nextAliasID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := *a
	s.aliases[a.ID] = &stored
	return nil
}

// ListAliases 别名列表，附带域名，按 source 排序
func (s *Store) ListAliases() ([]domain.AliasWithDomain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.AliasWithDomain, 0, len(s.aliases))
	for _, a := range s.aliases {
		row := domain.AliasWithDomain{Alias: *a}
		if d, ok := s.domains[a.DomainID]; ok {
			row.DomainName = d.Name
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Source < rows[j].Source })
	return rows, nil
}

// CountActiveAliases 激活别名数
func (s *Store) CountActiveAliases() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, a := range s.aliases {
		if a.Active {
			count++
		}
	}
	return count, nil
}

// ========== Quota ==========

// GetQuotaUsage 获取用户用量记录
func (s *Store) GetQuotaUsage(userID uint) (*domain.QuotaUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usage, ok := s.usage[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *usage
	return &cp, nil
}

// SetQuotaUsage 覆盖用量记录（模拟外部邮件系统的写入，测试用）
func (s *Store) SetQuotaUsage(usage domain.QuotaUsage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage.LastUpdated = time.Now()
	s.usage[usage.UserID] = &usage
}

// TotalBytesUsed 全部 bytes_used 之和
func (s *Store) TotalBytesUsed() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, usage := range s.usage {
		total += usage.BytesUsed
	}
	return total, nil
}

// ========== Setting ==========

// CreateSetting 写入设置项（初始化数据和测试用）
func (s *Store) CreateSetting(setting domain.SystemSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if setting.UpdatedAt.IsZero() {
		setting.UpdatedAt = time.Now()
	}
	s.settings[setting.Key] = &setting
}

// ListSettings 全部设置，按键排序
func (s *Store) ListSettings() ([]domain.SystemSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := make([]domain.SystemSetting, 0, len(s.settings))
	for _, setting := range s.settings {
		settings = append(settings, *setting)
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].Key < settings[j].Key })
	return settings, nil
}

// GetSetting 根据键获取设置
func (s *Store) GetSetting(key string) (*domain.SystemSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *setting
	return &cp, nil
}

// UpdateSettingValue 覆盖设置值，键不存在时返回 ErrNotFound
func (s *Store) UpdateSettingValue(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	setting, ok := s.settings[key]
	if !ok {
		return storage.ErrNotFound
	}
	setting.Value = value
	setting.UpdatedAt = time.Now()
	return nil
}
