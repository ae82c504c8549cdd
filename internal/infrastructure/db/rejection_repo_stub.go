package db

import (
	"context"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

// RejectionRepoStub stands in for the journal when it is disabled: frames are
// logged and nothing is kept.
type RejectionRepoStub struct {
	logger *logger.Logger
}

func NewRejectionRepoStub(log *logger.Logger) ports.RejectionRepository {
	if log == nil {
		log = logger.NewNop()
	}
	return &RejectionRepoStub{logger: log}
}

func (r *RejectionRepoStub) Create(ctx context.Context, frame *domain.RejectedFrame) error {
	r.logger.Infow("rejected frame",
		"source", frame.Source,
		"reason", frame.Reason,
		"detail", frame.Detail,
	)
	return nil
}

func (r *RejectionRepoStub) List(ctx context.Context, limit int) ([]domain.RejectedFrame, error) {
	return []domain.RejectedFrame{}, nil
}

func (r *RejectionRepoStub) CountByReason(ctx context.Context) (map[domain.RejectionReason]int64, error) {
	return map[domain.RejectionReason]int64{}, nil
}

func (r *RejectionRepoStub) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}
