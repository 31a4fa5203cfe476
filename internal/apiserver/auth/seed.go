package auth

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"edms/internal/shared/model"
)

// 系统内置账号：每个角色各一个，受保护，不可改角色、不可删除
var systemAccounts = []struct {
	userID    string
	firstName string
	role      model.UserRole
	envPass   string
}{
	{"admin", "Admin", model.UserRoleAdmin, "ADMIN_PASSWORD"},
	{"contributor", "Contributor", model.UserRoleContributor, "CONTRIBUTOR_PASSWORD"},
	{"viewer", "Viewer", model.UserRoleViewer, "VIEWER_PASSWORD"},
}

// SeedSystemAccounts 启动时幂等创建系统内置账号
//
// 账号已存在时跳过，不会覆盖已有密码。
func SeedSystemAccounts(ctx context.Context, store UserStore) error {
	for _, acct := range systemAccounts {
		existing, err := store.GetUserByID(ctx, acct.userID)
		if err != nil {
			return fmt.Errorf("seed lookup %s: %w", acct.userID, err)
		}
		if existing != nil {
			continue
		}

		password := os.Getenv(acct.envPass)
		if password == "" {
			password = acct.userID
			log.Printf("[auth] WARNING: %s not set, system account %q uses default password", acct.envPass, acct.userID)
		}
		hash, err := HashPassword(password)
		if err != nil {
			return fmt.Errorf("seed hash %s: %w", acct.userID, err)
		}

		now := time.Now()
		user := &model.User{
			UserID:       acct.userID,
			FirstName:    acct.firstName,
			LastName:     "User",
			Email:        acct.userID + "@edms.local",
			PasswordHash: hash,
			Role:         acct.role,
			Protected:    true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("seed create %s: %w", acct.userID, err)
		}
		log.Printf("[auth] System account created: %s (%s)", acct.userID, acct.role)
	}
	return nil
}
