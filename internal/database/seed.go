package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sales-ims/internal/auth"
	"sales-ims/internal/logger"
	"sales-ims/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedAdmin creates the bootstrap account from configuration. It is a no-op
// when either value is empty or the email is already registered.
func SeedAdmin(ctx context.Context, db *gorm.DB, email, password string, log *zap.Logger) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Email:          email,
		HashedPassword: hash,
		Role:           "admin",
	}
	if err := db.WithContext(ctx).Create(&admin).Error; err != nil {
		if IsDuplicateKeyErr(err) {
			return nil
		}
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Info("created bootstrap user", zap.String("email", logger.MaskEmail(email)), zap.Uint("user_id", admin.ID))
	return nil
}
