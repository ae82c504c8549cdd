package db

import (
	"github.com/agentmesh/commandcenter/internal/domain"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.RejectedFrame{}); err != nil {
		return err
	}

	// Listing is newest-first, usually filtered by reason.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rejected_frames_reason_created
		ON rejected_frames (reason, created_at DESC)
	`).Error; err != nil {
		return err
	}

	return nil
}
