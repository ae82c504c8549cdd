package services

import (
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
)

// HealthRegistry keeps the latest reading per worker. Readings are full
// snapshots, so Record replaces rather than merges. Nothing is ever evicted;
// consumers judge staleness from Timestamp and LastObservedAt.
type HealthRegistry struct {
	entries map[int]domain.WorkerHealth
	now     func() time.Time
}

func NewHealthRegistry(now func() time.Time) *HealthRegistry {
	if now == nil {
		now = time.Now
	}
	return &HealthRegistry{
		entries: make(map[int]domain.WorkerHealth),
		now:     now,
	}
}

func (r *HealthRegistry) Record(metric domain.HealthMetric) domain.WorkerHealth {
	entry := domain.WorkerHealth{
		Metric:         metric,
		LastObservedAt: r.now().UTC(),
	}
	r.entries[metric.WorkerID] = entry
	return entry
}

// Snapshot returns a copy of the registry keyed by worker id.
func (r *HealthRegistry) Snapshot() map[int]domain.WorkerHealth {
	out := make(map[int]domain.WorkerHealth, len(r.entries))
	for id, entry := range r.entries {
		out[id] = entry
	}
	return out
}
