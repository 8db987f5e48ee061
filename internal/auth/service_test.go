package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage/memory"
)

func seedAdmin(t *testing.T, store *memory.Store, email, password string, active, admin bool) *domain.User {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	d := &domain.Domain{Name: "example.com", Active: true}
	require.NoError(t, store.CreateDomain(d))

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test Admin",
		DomainID:     d.ID,
		QuotaBytes:   domain.GiBToBytes(1),
		Active:       active,
		Admin:        admin,
	}
	require.NoError(t, store.CreateUserWithQuota(user))
	return user
}

func TestLogin_Success(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "admin@example.com", "secret123", true, true)
	service := NewService(store)

	user, err := service.Login("admin@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", user.Email)
}

func TestLogin_UpdatesLastLogin(t *testing.T) {
	store := memory.NewStore()
	seeded := seedAdmin(t, store, "admin@example.com", "secret123", true, true)
	require.Nil(t, seeded.LastLogin)

	service := NewService(store)
	_, err := service.Login("admin@example.com", "secret123")
	require.NoError(t, err)

	reloaded, err := store.GetUserByID(seeded.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastLogin)
}

func TestLogin_WrongPassword(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "admin@example.com", "secret123", true, true)
	service := NewService(store)

	_, err := service.Login("admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

// 不存在的账户和密码错误返回完全相同的错误，避免账号枚举
func TestLogin_UnknownUserSameError(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "admin@example.com", "secret123", true, true)
	service := NewService(store)

	_, errUnknown := service.Login("nobody@example.com", "secret123")
	_, errWrongPass := service.Login("admin@example.com", "wrong")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass, errUnknown)
}

func TestLogin_InactiveRejected(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "admin@example.com", "secret123", false, true)
	service := NewService(store)

	_, err := service.Login("admin@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NonAdminRejected(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "user@example.com", "secret123", true, false)
	service := NewService(store)

	_, err := service.Login("user@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_TrimsEmail(t *testing.T) {
	store := memory.NewStore()
	seedAdmin(t, store, "admin@example.com", "secret123", true, true)
	service := NewService(store)

	_, err := service.Login("  admin@example.com  ", "secret123")
	assert.NoError(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
	assert.False(t, CheckPassword("secret123", "not-a-hash"))
}
