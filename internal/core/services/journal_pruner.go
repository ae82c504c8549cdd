package services

import (
	"context"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

// JournalPruner deletes journal records older than the retention window on a
// fixed interval.
type JournalPruner struct {
	repo      ports.RejectionRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	log       *logger.Logger
}

func NewJournalPruner(repo ports.RejectionRepository, retention, interval time.Duration, log *logger.Logger) *JournalPruner {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &JournalPruner{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		log:       log,
	}
}

// Prune removes records created before now minus the retention window. A zero
// retention keeps everything.
func (p *JournalPruner) Prune(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	cutoff := p.now().UTC().Add(-p.retention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Warnw("journal_prune_failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	if deleted > 0 {
		p.log.Infow("journal_pruned", "deleted", deleted, "cutoff", cutoff)
	}
	return deleted, nil
}

// Run prunes once immediately and then every interval until ctx is done.
func (p *JournalPruner) Run(ctx context.Context) {
	if p.retention <= 0 {
		return
	}
	_, _ = p.Prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = p.Prune(ctx)
		}
	}
}
