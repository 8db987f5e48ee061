package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage/memory"
)

func seedSettings(store *memory.Store) {
	store.CreateSetting(domain.SystemSetting{Key: "smtp_host", Value: "mail.example.com", Type: "string"})
	store.CreateSetting(domain.SystemSetting{Key: "smtp_port", Value: "587", Type: "int"})
	store.CreateSetting(domain.SystemSetting{Key: "spam_threshold", Value: "5.0", Type: "float"})
	store.CreateSetting(domain.SystemSetting{Key: "default_quota", Value: "1073741824", Type: "int"})
	store.CreateSetting(domain.SystemSetting{Key: "site_name", Value: "KoeMail", Type: "string"})
}

func TestSettingsService_Grouped(t *testing.T) {
	store := memory.NewStore()
	seedSettings(store)
	service := NewSettingsService(store)

	groups, err := service.Grouped()
	require.NoError(t, err)
	require.Len(t, groups, 4)

	// 分组顺序跟随规则表优先级，General 在最后
	assert.Equal(t, "SMTP", groups[0].Category)
	assert.Equal(t, "Spam Filter", groups[1].Category)
	assert.Equal(t, "Storage", groups[2].Category)
	assert.Equal(t, "General", groups[3].Category)

	// 组内按键排序
	require.Len(t, groups[0].Settings, 2)
	assert.Equal(t, "smtp_host", groups[0].Settings[0].Key)
	assert.Equal(t, "smtp_port", groups[0].Settings[1].Key)
}

func TestSettingsService_Grouped_Empty(t *testing.T) {
	store := memory.NewStore()
	service := NewSettingsService(store)

	groups, err := service.Grouped()
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSettingsService_Update(t *testing.T) {
	store := memory.NewStore()
	seedSettings(store)
	service := NewSettingsService(store)

	setting, err := service.Update("smtp_port", "2525")
	require.NoError(t, err)
	assert.Equal(t, "2525", setting.Value)

	// 值按原始字符串存储，类型标签不做强制校验
	setting, err = service.Update("smtp_port", "not-a-number")
	require.NoError(t, err)
	assert.Equal(t, "not-a-number", setting.Value)
}

func TestSettingsService_Update_UnknownKey(t *testing.T) {
	store := memory.NewStore()
	seedSettings(store)
	service := NewSettingsService(store)

	_, err := service.Update("no_such_key", "x")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSettingsService_Get(t *testing.T) {
	store := memory.NewStore()
	seedSettings(store)
	service := NewSettingsService(store)

	setting, err := service.Get("site_name")
	require.NoError(t, err)
	assert.Equal(t, "KoeMail", setting.Value)

	_, err = service.Get("missing")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestSettingsService_List(t *testing.T) {
	store := memory.NewStore()
	seedSettings(store)
	service := NewSettingsService(store)

	settings, err := service.List()
	require.NoError(t, err)
	assert.Len(t, settings, 5)
}
