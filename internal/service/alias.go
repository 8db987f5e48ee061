package service

import (
	"fmt"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// AliasService 转发规则，本控制台只读展示。
// 别名的增删由外部邮件系统负责。
type AliasService struct {
	store storage.Store
}

// NewAliasService 创建别名服务
func NewAliasService(store storage.Store) *AliasService {
	return &AliasService{store: store}
}

// List 全部别名，附带所属域名，按 source 排序
func (s *AliasService) List() ([]domain.AliasWithDomain, error) {
	rows, err := s.store.ListAliases()
	if err != nil {
		return nil, fmt.Errorf("failed to list aliases: %w", err)
	}
	return rows, nil
}
