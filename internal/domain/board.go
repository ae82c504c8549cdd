package domain

import "time"

// BoardSnapshot is an immutable, published view of the reconciled state.
// Holders must not modify it; a new snapshot is published on every change.
type BoardSnapshot struct {
	Version   uint64               `json:"version"`
	Tasks     []Task               `json:"tasks"`
	Columns   TaskColumns          `json:"columns"`
	Health    map[int]WorkerHealth `json:"health"`
	Connected bool                 `json:"connected"`
	State     ConnectionState      `json:"state"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Task returns the task with the given id from the snapshot.
func (s *BoardSnapshot) Task(id string) (Task, bool) {
	for _, t := range s.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// FrameStats counts what the frame handler has seen since start.
type FrameStats struct {
	Frames         uint64 `json:"frames"`
	HealthUpdates  uint64 `json:"health_updates"`
	TaskEvents     uint64 `json:"task_events"`
	DecodeFailures uint64 `json:"decode_failures"`
	Rejected       uint64 `json:"rejected"`
	JournalDropped uint64 `json:"journal_dropped"`
}
