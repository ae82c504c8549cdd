package db

import (
	"context"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"gorm.io/gorm"
)

type rejectionRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRejectionRepository(db *gorm.DB, log *logger.Logger) ports.RejectionRepository {
	return &rejectionRepository{
		db:  db,
		log: log,
	}
}

func (r *rejectionRepository) Create(ctx context.Context, frame *domain.RejectedFrame) error {
	if err := r.db.WithContext(ctx).Create(frame).Error; err != nil {
		r.log.Errorw("rejection_repo_create_failed", "reason", frame.Reason, "source", frame.Source, "error", err)
		return err
	}
	r.log.Debugw("rejection_repo_create_ok", "id", frame.ID, "reason", frame.Reason)
	return nil
}

func (r *rejectionRepository) List(ctx context.Context, limit int) ([]domain.RejectedFrame, error) {
	var frames []domain.RejectedFrame
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Limit(limit).
		Find(&frames).Error
	if err != nil {
		r.log.Errorw("rejection_repo_list_failed", "error", err)
		return nil, err
	}
	r.log.Debugw("rejection_repo_list_ok", "count", len(frames))
	return frames, nil
}

func (r *rejectionRepository) CountByReason(ctx context.Context) (map[domain.RejectionReason]int64, error) {
	var rows []struct {
		Reason domain.RejectionReason
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.RejectedFrame{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&rows).Error
	if err != nil {
		r.log.Errorw("rejection_repo_count_failed", "error", err)
		return nil, err
	}

	counts := make(map[domain.RejectionReason]int64, len(rows))
	for _, row := range rows {
		counts[row.Reason] = row.Count
	}
	return counts, nil
}

// DeleteOlderThan removes journal records created before cutoff.
func (r *rejectionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&domain.RejectedFrame{})
	if res.Error != nil {
		r.log.Errorw("rejection_repo_cleanup_failed", "error", res.Error)
		return 0, res.Error
	}
	r.log.Infow("rejection_repo_cleanup_ok", "deleted", res.RowsAffected)
	return res.RowsAffected, nil
}
