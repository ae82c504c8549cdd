package ports

import (
	"context"
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
)

type RejectionRepository interface {
	Create(ctx context.Context, frame *domain.RejectedFrame) error
	List(ctx context.Context, limit int) ([]domain.RejectedFrame, error)
	CountByReason(ctx context.Context) (map[domain.RejectionReason]int64, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
