package main

import (
	"errors"
	"fmt"
	"os"

	"koemail/admin/internal/auth"
	"koemail/admin/internal/config"
	"koemail/admin/internal/storage"
	sqlstore "koemail/admin/internal/storage/sql"
)

// reset-password 重置指定账户的密码。
// 管理员把自己锁在外面时从服务器上直接恢复访问。
func main() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: reset-password <email> <new-password>")
		os.Exit(1)
	}

	email := os.Args[1]
	password := os.Args[2]

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

	user, err := store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("No user with email %s\n", email)
		} else {
			fmt.Printf("Failed to look up user: %v\n", err)
		}
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	if err := store.UpdatePassword(user.ID, hash); err != nil {
		fmt.Printf("Failed to update password: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Password updated for %s (id=%d)\n", user.Email, user.ID)
}
