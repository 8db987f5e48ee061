package service

import (
	"errors"
	"fmt"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// ErrSettingNotFound 设置键不存在
var ErrSettingNotFound = errors.New("setting not found")

// SettingsService 系统设置管理
type SettingsService struct {
	store storage.Store
}

// NewSettingsService 创建设置服务
func NewSettingsService(store storage.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Grouped 全部设置按分类分组。分组顺序跟随分类规则表的优先级，
// General 兜底分组排在最后；组内按键排序。
func (s *SettingsService) Grouped() ([]domain.SettingGroup, error) {
	settings, err := s.store.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	byCategory := make(map[string][]domain.SystemSetting)
	for _, setting := range settings {
		category := domain.SettingCategory(setting.Key)
		byCategory[category] = append(byCategory[category], setting)
	}

	var groups []domain.SettingGroup
	for _, rule := range domain.SettingCategoryRules() {
		if members, ok := byCategory[rule.Category]; ok {
			groups = append(groups, domain.SettingGroup{Category: rule.Category, Settings: members})
			delete(byCategory, rule.Category)
		}
	}
	if members, ok := byCategory[domain.SettingCategoryGeneral]; ok {
		groups = append(groups, domain.SettingGroup{Category: domain.SettingCategoryGeneral, Settings: members})
	}
	return groups, nil
}

// List 全部设置的平铺列表，按键排序
func (s *SettingsService) List() ([]domain.SystemSetting, error) {
	settings, err := s.store.ListSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

// Get 根据键获取设置
func (s *SettingsService) Get(key string) (*domain.SystemSetting, error) {
	setting, err := s.store.GetSetting(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return setting, nil
}

// Update 覆盖设置值。值按原始字符串存储，类型标签只作展示，
// 不做强制校验；键不存在返回 ErrSettingNotFound。
func (s *SettingsService) Update(key, value string) (*domain.SystemSetting, error) {
	if err := s.store.UpdateSettingValue(key, value); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to update setting: %w", err)
	}
	return s.Get(key)
}
