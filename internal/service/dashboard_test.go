package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage/memory"
)

func TestDashboardService_Stats(t *testing.T) {
	store := memory.NewStore()
	domains := NewDomainService(store)
	users := NewUserService(store)
	dashboard := NewDashboardService(store)

	d, err := domains.Create("example.com", "", true)
	require.NoError(t, err)
	_, err = domains.Create("inactive.com", "", false)
	require.NoError(t, err)

	active, err := users.Create(CreateUserInput{
		Email: "active@example.com", Password: "x", DomainID: d.ID, Active: true,
	})
	require.NoError(t, err)
	_, err = users.Create(CreateUserInput{
		Email: "disabled@example.com", Password: "x", DomainID: d.ID, Active: false,
	})
	require.NoError(t, err)

	require.NoError(t, store.CreateAlias(&domain.Alias{
		Source: "info@example.com", Destination: "active@example.com", DomainID: d.ID, Active: true,
	}))
	require.NoError(t, store.CreateAlias(&domain.Alias{
		Source: "old@example.com", Destination: "active@example.com", DomainID: d.ID, Active: false,
	}))

	store.SetQuotaUsage(domain.QuotaUsage{UserID: active.ID, BytesUsed: 12345, MessageCount: 7})

	stats, err := dashboard.Stats()
	require.NoError(t, err)

	// 计数只含激活实体，用量是全部记录之和
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(1), stats.Domains)
	assert.Equal(t, int64(1), stats.Aliases)
	assert.Equal(t, int64(12345), stats.StorageBytes)
}

func TestDashboardService_Stats_Empty(t *testing.T) {
	store := memory.NewStore()
	dashboard := NewDashboardService(store)

	stats, err := dashboard.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Users)
	assert.Equal(t, int64(0), stats.StorageBytes)
}

func TestDashboardService_RecentUsers(t *testing.T) {
	store := memory.NewStore()
	domains := NewDomainService(store)
	users := NewUserService(store)
	dashboard := NewDashboardService(store)

	d, err := domains.Create("example.com", "", true)
	require.NoError(t, err)

	// 最近用户不区分激活状态
	for i := 0; i < RecentUserCount+2; i++ {
		_, err := users.Create(CreateUserInput{
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "x",
			DomainID: d.ID,
			Active:   i%2 == 0,
		})
		require.NoError(t, err)
	}

	recent, err := dashboard.RecentUsers()
	require.NoError(t, err)
	assert.Len(t, recent, RecentUserCount)

	// 按创建时间倒序，最新的在前
	assert.Equal(t, fmt.Sprintf("user%d@example.com", RecentUserCount+1), recent[0].Email)
}
