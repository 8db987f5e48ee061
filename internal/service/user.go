package service

import (
	"errors"
	"fmt"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// UsersPerPage 用户列表每页条数
const UsersPerPage = 25

var (
	// ErrUserNotFound 用户不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrCannotDeleteSelf 不能删除当前登录的账户
	ErrCannotDeleteSelf = errors.New("cannot delete your own account")
	// ErrMissingCredentials 创建用户缺少邮箱或密码
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidQuota 配额必须是非负整数 GiB
	ErrInvalidQuota = errors.New("quota must be a non-negative number of GiB")
	// ErrEmailExists 邮箱已被占用
	ErrEmailExists = errors.New("email already exists")
)

// UserService 邮箱账户管理
type UserService struct {
	store storage.Store
}

// NewUserService 创建用户服务
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// UserPage 用户列表的一页
type UserPage struct {
	Users      []domain.UserWithUsage `json:"users"`
	Search     string                 `json:"search,omitempty"`
	Page       int                    `json:"page"`
	TotalPages int                    `json:"totalPages"`
	Total      int64                  `json:"total"`
}

// HasPrev 是否有上一页
func (p *UserPage) HasPrev() bool { return p.Page > 1 }

// HasNext 是否有下一页
func (p *UserPage) HasNext() bool { return p.Page < p.TotalPages }

// PrevPage 上一页页码
func (p *UserPage) PrevPage() int { return p.Page - 1 }

// NextPage 下一页页码
func (p *UserPage) NextPage() int { return p.Page + 1 }

// List 用户列表：可选邮箱子串过滤，按创建时间倒序，每页 25 条。
// 页码越界时返回最后一页而不是报错。
func (s *UserService) List(search string, page int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}

	rows, total, err := s.store.ListUsers(search, (page-1)*UsersPerPage, UsersPerPage)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	totalPages := int((total + UsersPerPage - 1) / UsersPerPage)
	if totalPages < 1 {
		totalPages = 1
	}

	// 请求的页码超出范围时退回最后一页
	if page > totalPages {
		page = totalPages
		rows, total, err = s.store.ListUsers(search, (page-1)*UsersPerPage, UsersPerPage)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
	}

	return &UserPage{
		Users:      rows,
		Search:     search,
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}, nil
}

// Get 根据 ID 获取用户
func (s *UserService) Get(id uint) (*domain.User, error) {
	user, err := s.store.GetUserByID(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GetByEmail 根据邮箱获取用户
func (s *UserService) GetByEmail(email string) (*domain.User, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CreateUserInput 创建用户的表单输入
type CreateUserInput struct {
	Email    string
	Password string
	Name     string
	DomainID uint
	QuotaGiB int64 // 整 GiB，存库前转为字节
	Admin    bool
	Active   bool
}

// Create 创建邮箱账户。密码立即哈希，配额 GiB 转字节，
// 用户行和零值用量行由存储层在同一事务内写入。
func (s *UserService) Create(input CreateUserInput) (*domain.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, ErrMissingCredentials
	}
	if input.QuotaGiB < 0 {
		return nil, ErrInvalidQuota
	}

	if _, err := s.store.GetUserByEmail(input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	if _, err := s.store.GetDomainByID(input.DomainID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDomainNotFound
		}
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		DomainID:     input.DomainID,
		QuotaBytes:   domain.GiBToBytes(input.QuotaGiB),
		Admin:        input.Admin,
		Active:       input.Active,
	}

	if err := s.store.CreateUserWithQuota(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// UpdateUserInput 编辑用户的表单输入
type UpdateUserInput struct {
	ID       uint
	Name     string
	QuotaGiB int64
	Password string // 留空表示保持原密码
	Admin    bool
	Active   bool
}

// Update 更新用户。邮箱和所属域名不可修改；
// 密码只在表单提交了新值时重新哈希。
func (s *UserService) Update(input UpdateUserInput) (*domain.User, error) {
	if input.QuotaGiB < 0 {
		return nil, ErrInvalidQuota
	}

	user, err := s.Get(input.ID)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.QuotaBytes = domain.GiBToBytes(input.QuotaGiB)
	user.Admin = input.Admin
	user.Active = input.Active

	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.store.UpdateUser(user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ChangePassword 重设用户密码，不触碰其他字段
func (s *UserService) ChangePassword(id uint, newPassword string) error {
	if newPassword == "" {
		return ErrMissingCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(id, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// Delete 删除用户及其用量记录。operatorID 是当前登录管理员，
// 删除自己会被拒绝。
func (s *UserService) Delete(id, operatorID uint) error {
	if id == operatorID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.store.DeleteUser(id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
