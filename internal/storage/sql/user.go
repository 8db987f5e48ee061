package sql

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
)

// ========== User Repository ==========

// CreateUserWithQuota 创建新用户，并在同一事务内写入零值用量记录。
// 两条写入要么都成功，要么都回滚，避免出现没有 quota_usage 的孤儿用户。
func (s *Store) CreateUserWithQuota(user *domain.User) error {
	return s.gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		usage := domain.QuotaUsage{UserID: user.ID}
		return tx.Create(&usage).Error
	})
}

// GetUserByID 根据 ID 获取用户
func (s *Store) GetUserByID(id uint) (*domain.User, error) {
	var user domain.User
	if err := s.gormDB.First(&user, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	if err := s.gormDB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// UpdateUser 保存用户全部可变字段
func (s *Store) UpdateUser(user *domain.User) error {
	return s.gormDB.Save(user).Error
}

// UpdatePassword 只更新密码哈希
func (s *Store) UpdatePassword(id uint, passwordHash string) error {
	res := s.gormDB.Model(&domain.User{}).Where("id = ?", id).
		Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateLastLogin 更新最后登录时间
func (s *Store) UpdateLastLogin(id uint) error {
	return s.gormDB.Model(&domain.User{}).Where("id = ?", id).
		Update("last_login", time.Now().UTC()).Error
}

// DeleteUser 删除用户及其用量记录。
// 外键级联在 MySQL 5.7 下不一定存在，这里显式删除 quota_usage。
func (s *Store) DeleteUser(id uint) error {
	return s.gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.QuotaUsage{}, "user_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
}

// ListUsers 用户列表：联 domains、左联 quota_usage，按创建时间倒序。
// search 非空时对邮箱做大小写不敏感的子串过滤。
func (s *Store) ListUsers(search string, offset, limit int) ([]domain.UserWithUsage, int64, error) {
	base := s.gormDB.Model(&domain.User{})
	if search != "" {
		base = base.Where("LOWER(users.email) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []domain.UserWithUsage
	err := base.
		Select("users.*, domains.domain AS domain_name, " +
			"COALESCE(quota_usage.bytes_used, 0) AS bytes_used, " +
			"COALESCE(quota_usage.message_count, 0) AS message_count").
		Joins("JOIN domains ON domains.id = users.domain_id").
		Joins("LEFT JOIN quota_usage ON quota_usage.user_id = users.id").
		Order("users.created_at DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// RecentUsers 最近创建的用户
func (s *Store) RecentUsers(limit int) ([]domain.User, error) {
	var users []domain.User
	err := s.gormDB.Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

// CountActiveUsers 激活用户数
func (s *Store) CountActiveUsers() (int64, error) {
	var count int64
	err := s.gormDB.Model(&domain.User{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// mapNotFound 将 GORM 的未找到错误映射为存储层哨兵错误
func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}
