package domain

import "time"

const EventTypeHealthUpdate = "HEALTH_UPDATE"

type HealthMetric struct {
	WorkerID  int     `json:"worker_id"`
	CPUUsage  float64 `json:"cpu_usage"`
	RAMUsage  float64 `json:"ram_usage"`
	RAMUsedMB float64 `json:"ram_used_mb,omitempty"`
	Timestamp string  `json:"timestamp"`
}

// WorkerHealth is a registry entry: the latest reading and when it was observed locally.
type WorkerHealth struct {
	Metric         HealthMetric `json:"metric"`
	LastObservedAt time.Time    `json:"last_observed_at"`
}
