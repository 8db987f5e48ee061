package main

import (
	"errors"
	"fmt"
	"os"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/config"
	"koemail/admin/internal/domain"
	"koemail/admin/internal/storage"
	sqlstore "koemail/admin/internal/storage/sql"
)

// create-test-user 在配置的数据库里创建一个管理员账户，
// 域名不存在时一并创建，同邮箱的旧账户会被删除重建
// （用量记录随之归零）。用于初始化部署和本地联调。
func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: create-test-user <email> <password> <domain> [name]")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]
	domainName := os.Args[3]
	name := "Test Admin"
	if len(os.Args) >= 5 {
		name = os.Args[4]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Database.Type == "" {
		fmt.Println("KOEMAIL_DATABASE_TYPE must be set (mysql or postgres)")
		os.Exit(1)
	}

	store, err := sqlstore.NewStore(
		cfg.Database.Type,
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	d, err := findDomain(store, domainName)
	if err != nil {
		fmt.Printf("Failed to look up domain: %v\n", err)
		os.Exit(1)
	}
	if d == nil {
		d = &domain.Domain{Name: domainName, Description: "Created by create-test-user", Active: true}
		if err := store.CreateDomain(d); err != nil {
			fmt.Printf("Failed to create domain: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created domain %s (id=%d)\n", d.Name, d.ID)
	}

	// 重复执行时覆盖旧账户，保证密码和配额回到已知状态
	if existing, err := store.GetUserByEmail(email); err == nil {
		if err := store.DeleteUser(existing.ID); err != nil {
			fmt.Printf("Failed to remove existing user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed existing user %s (id=%d)\n", email, existing.ID)
	} else if !errors.Is(err, storage.ErrNotFound) {
		fmt.Printf("Failed to look up user: %v\n", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		DomainID:     d.ID,
		QuotaBytes:   domain.GiBToBytes(1),
		Active:       true,
		Admin:        true,
	}
	if err := store.CreateUserWithQuota(user); err != nil {
		fmt.Printf("Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created admin user %s (id=%d) in domain %s\n", user.Email, user.ID, d.Name)
}

// findDomain 按名称查找域名，不存在时返回 nil
func findDomain(store storage.Store, name string) (*domain.Domain, error) {
	domains, err := store.ListActiveDomains()
	if err != nil {
		return nil, err
	}
	for i := range domains {
		if domains[i].Name == name {
			return &domains[i], nil
		}
	}
	return nil, nil
}
