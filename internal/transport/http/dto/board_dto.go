package dto

import (
	"sort"
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type StatusResponse struct {
	Connected   bool                   `json:"connected"`
	State       domain.ConnectionState `json:"state"`
	Version     uint64                 `json:"version"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Subscribers int                    `json:"subscribers"`
	Stats       domain.FrameStats      `json:"stats"`
}

type WorkerResponse struct {
	WorkerID       int       `json:"worker_id"`
	CPUUsage       float64   `json:"cpu_usage"`
	RAMUsage       float64   `json:"ram_usage"`
	RAMUsedMB      float64   `json:"ram_used_mb,omitempty"`
	Timestamp      string    `json:"timestamp"`
	LastObservedAt time.Time `json:"last_observed_at"`
}

// WorkersToResponse flattens the registry, ordered by worker id.
func WorkersToResponse(health map[int]domain.WorkerHealth) []WorkerResponse {
	out := make([]WorkerResponse, 0, len(health))
	for _, h := range health {
		out = append(out, WorkerResponse{
			WorkerID:       h.Metric.WorkerID,
			CPUUsage:       h.Metric.CPUUsage,
			RAMUsage:       h.Metric.RAMUsage,
			RAMUsedMB:      h.Metric.RAMUsedMB,
			Timestamp:      h.Metric.Timestamp,
			LastObservedAt: h.LastObservedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out
}

type RejectionSummaryResponse struct {
	Total    int64                            `json:"total"`
	ByReason map[domain.RejectionReason]int64 `json:"by_reason"`
}
