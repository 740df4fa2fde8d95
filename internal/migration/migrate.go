package migration

import (
	"fmt"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Run executes AutoMigrate for the chat tables.
func Run(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Profile{}, &domain.Message{}, &domain.Contact{})
}

// SeedAdmin creates the first admin account when profiles is empty.
// Returns false when nothing was created.
func SeedAdmin(db *gorm.DB, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	var count int64
	if err := db.Model(&domain.Profile{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	pin, err := domain.NewPIN()
	if err != nil {
		return false, err
	}

	admin := &domain.Profile{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  username,
		PasswordHash: string(hash),
		PIN:          pin,
		IsAdmin:      true,
	}
	if err := db.Create(admin).Error; err != nil {
		return false, err
	}
	return true, nil
}
