package service

import (
	"fmt"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// RecentUserCount 仪表盘展示的最近用户条数
const RecentUserCount = 5

// DashboardService 仪表盘聚合统计，只读
type DashboardService struct {
	store storage.Store
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(store storage.Store) *DashboardService {
	return &DashboardService{store: store}
}

// Stats 激活实体计数加全部存储用量之和，空表时用量为 0
func (s *DashboardService) Stats() (*domain.DashboardStats, error) {
	users, err := s.store.CountActiveUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	domains, err := s.store.CountActiveDomains()
	if err != nil {
		return nil, fmt.Errorf("failed to count domains: %w", err)
	}
	aliases, err := s.store.CountActiveAliases()
	if err != nil {
		return nil, fmt.Errorf("failed to count aliases: %w", err)
	}
	storageBytes, err := s.store.TotalBytesUsed()
	if err != nil {
		return nil, fmt.Errorf("failed to sum storage usage: %w", err)
	}

	return &domain.DashboardStats{
		Users:        users,
		Domains:      domains,
		Aliases:      aliases,
		StorageBytes: storageBytes,
	}, nil
}

// RecentUsers 最近创建的 5 个用户，不区分激活状态
func (s *DashboardService) RecentUsers() ([]domain.User, error) {
	users, err := s.store.RecentUsers(RecentUserCount)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent users: %w", err)
	}
	return users, nil
}
