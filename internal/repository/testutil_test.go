package repository

import (
	"testing"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/domain"
	"github.com/blackbox-chat/blackbox-backend/internal/migration"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	// :memory: is per connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.Run(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, username, pin string) *domain.Profile {
	t.Helper()
	p := &domain.Profile{
		ID:          uuid.New().String(),
		Username:    username,
		DisplayName: username,
		PIN:         pin,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedText(t *testing.T, db *gorm.DB, from, to, text string, at time.Time) *domain.Message {
	t.Helper()
	m := &domain.Message{
		SenderID:    from,
		ReceiverID:  to,
		MessageType: domain.MessageTypeText,
		Content:     &text,
		CreatedAt:   at,
	}
	require.NoError(t, db.Create(m).Error)
	return m
}
