package service

import (
	"errors"
	"fmt"
	"strings"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

var (
	// ErrDomainNotFound 域名不存在
	ErrDomainNotFound = errors.New("domain not found")
	// ErrDomainNameRequired 域名不能为空
	ErrDomainNameRequired = errors.New("domain name is required")
	// ErrDomainExists 域名已存在
	ErrDomainExists = errors.New("domain already exists")
)

// DomainService 邮件域名管理
type DomainService struct {
	store storage.Store
}

// NewDomainService 创建域名服务
func NewDomainService(store storage.Store) *DomainService {
	return &DomainService{store: store}
}

// List 域名列表，附带各自的用户数，按字母序
func (s *DomainService) List() ([]domain.DomainWithCount, error) {
	rows, err := s.store.ListDomainsWithCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	return rows, nil
}

// ListActive 激活域名（用户表单的下拉选项）
func (s *DomainService) ListActive() ([]domain.Domain, error) {
	return s.store.ListActiveDomains()
}

// Get 根据 ID 获取域名
func (s *DomainService) Get(id uint) (*domain.Domain, error) {
	d, err := s.store.GetDomainByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}
	return d, nil
}

// Create 创建域名。名称统一转小写后存储，之后不可再改。
func (s *DomainService) Create(name, description string, active bool) (*domain.Domain, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrDomainNameRequired
	}

	existing, err := s.store.ListDomainsWithCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	for i := range existing {
		if existing[i].Name == name {
			return nil, ErrDomainExists
		}
	}

	d := &domain.Domain{
		Name:        name,
		Description: description,
		Active:      active,
	}
	if err := s.store.CreateDomain(d); err != nil {
		return nil, fmt.Errorf("failed to create domain: %w", err)
	}
	return d, nil
}

// Update 更新域名。只有描述和激活标记可变，
// 域名本身是创建后不可变的标识符。
func (s *DomainService) Update(id uint, description string, active bool) (*domain.Domain, error) {
	d, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	d.Description = description
	d.Active = active

	if err := s.store.UpdateDomain(d); err != nil {
		return nil, fmt.Errorf("failed to update domain: %w", err)
	}
	return d, nil
}
