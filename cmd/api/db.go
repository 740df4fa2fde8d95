package main

import (
	"context"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"gorm.io/gorm"
)

// sampleDBStats feeds the db_connections gauge until ctx is done
func sampleDBStats(ctx context.Context, db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		middleware.ObserveDBStats(sqlDB.Stats())
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
