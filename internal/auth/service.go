package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"koemail/admin/internal/domain"
)

// ErrInvalidCredentials 登录失败的唯一对外错误。
// 用户不存在、密码错误、账户停用、非管理员都映射到它，避免账号枚举。
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserRepository 认证所需的用户存储接口
type UserRepository interface {
	GetUserByEmail(email string) (*domain.User, error)
	UpdateLastLogin(id uint) error
}

// Service 管理员认证服务
type Service struct {
	users UserRepository
}

// NewService 创建认证服务
func NewService(users UserRepository) *Service {
	return &Service{users: users}
}

// Login 校验管理员凭证。只有激活且带管理员标记的用户可以登录，
// 成功后更新最后登录时间。
func (s *Service) Login(email, password string) (*domain.User, error) {
	user, err := s.users.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active || !user.Admin {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// 最后登录时间是尽力而为的簿记，失败不阻塞登录
	_ = s.users.UpdateLastLogin(user.ID)

	return user, nil
}

// HashPassword 生成 bcrypt 密码哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword 校验密码，bcrypt 内部为常数时间比较
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
