package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

var (
	// ErrDuplicateEmail 邮箱已存在
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrDuplicateDomain 域名已存在
	ErrDuplicateDomain = errors.New("duplicate domain")
	// ErrDomainMissing 引用的域名不存在（模拟外键约束）
	ErrDomainMissing = errors.New("referenced domain does not exist")
)

// Store 内存存储实现，用于开发环境和测试。
// 行为与 SQL 实现保持一致：唯一约束、外键、级联删除都在这里模拟。
type Store struct {
	mu sync.RWMutex

	users    map[uint]*domain.User
	domains  map[uint]*domain.Domain
	aliases  map[uint]*domain.Alias
	usage    map[uint]*domain.QuotaUsage // 键为 user_id
	settings map[string]*domain.SystemSetting

	nextUserID   uint
	nextDomainID uint
	nextAliasID  uint
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		users:        make(map[uint]*domain.User),
		domains:      make(map[uint]*domain.Domain),
		aliases:      make(map[uint]*domain.Alias),
		usage:        make(map[uint]*domain.QuotaUsage),
		settings:     make(map[string]*domain.SystemSetting),
		nextUserID:   1,
		nextDomainID: 1,
		nextAliasID:  1,
	}
}

// Health 内存存储恒为健康
func (s *Store) Health() error { return nil }

// Close 无资源需要释放
func (s *Store) Close() error { return nil }

// ========== User ==========

// CreateUserWithQuota 创建用户和零值用量记录。
// 内存实现天然原子：持锁期间两条记录一起写入。
func (s *Store) CreateUserWithQuota(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	if _, ok := s.domains[user.DomainID]; !ok {
		return ErrDomainMissing
	}

	now := time.Now()
	user.ID = s.nextUserID
	s.nextUserID++
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.usage[user.ID] = &domain.QuotaUsage{UserID: user.ID, LastUpdated: now}
	return nil
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id uint) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

// UpdateUser 保存用户
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	user.UpdatedAt = time.Now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// UpdatePassword 只更新密码哈希
func (s *Store) UpdatePassword(id uint, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

// UpdateLastLogin 更新最后登录时间
func (s *Store) UpdateLastLogin(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	now := time.Now()
	u.LastLogin = &now
	return nil
}

// DeleteUser 删除用户并级联删除用量记录
func (s *Store) DeleteUser(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	delete(s.usage, id)
	return nil
}

// ListUsers 用户列表：邮箱子串过滤（大小写不敏感）、创建时间倒序、分页
func (s *Store) ListUsers(search string, offset, limit int) ([]domain.UserWithUsage, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(search)
	var matched []*domain.User
	for _, u := range s.users {
		if needle != "" && !strings.Contains(strings.ToLower(u.Email), needle) {
			continue
		}
		matched = append(matched, u)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset < 0 {
		offset = 0
	}
	if offset > len(matched) {
		offset = len(matched)
	}
	end := offset + limit
	if limit <= 0 || end > len(matched) {
		end = len(matched)
	}

	rows := make([]domain.UserWithUsage, 0, end-offset)
	for _, u := range matched[offset:end] {
		row := domain.UserWithUsage{User: *u}
		if d, ok := s.domains[u.DomainID]; ok {
			row.DomainName = d.Name
		}
		if usage, ok := s.usage[u.ID]; ok {
			row.BytesUsed = usage.BytesUsed
			row.MessageCount = usage.MessageCount
		}
		rows = append(rows, row)
	}
	return rows, total, nil
}

// RecentUsers 最近创建的用户
func (s *Store) RecentUsers(limit int) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	users := make([]domain.User, 0, len(all))
	for _, u := range all {
		users = append(users, *u)
	}
	return users, nil
}

// CountActiveUsers 激活用户数
func (s *Store) CountActiveUsers() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, u := range s.users {
		if u.Active {
			count++
		}
	}
	return count, nil
}
