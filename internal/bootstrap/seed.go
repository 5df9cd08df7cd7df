package bootstrap

import (
	"context"
	"fmt"
	"log"

	"anoa.com/classhub/internal/config"
	userRepo "anoa.com/classhub/internal/modules/user/repository"
	user "anoa.com/classhub/internal/modules/user/service"
	"anoa.com/classhub/pkg/database"
	"gorm.io/gorm"
)

// Prepare migrates the schema and makes sure the configured administrator exists.
func Prepare(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	users := user.NewService(userRepo.NewUserRepository(db), cfg.JWTSecret, cfg.JWTExpiration)
	return SeedAdminUser(ctx, users, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

// SeedAdminUser is a no-op when email or password is empty.
func SeedAdminUser(ctx context.Context, users user.Service, email, password string) error {
	if email == "" || password == "" {
		log.Println("SEED_ADMIN_EMAIL is not set, skipping admin seed")
		return nil
	}

	if err := users.EnsureAdmin(ctx, email, password); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	log.Printf("admin user %s is ready", email)
	return nil
}
