package domain

import "time"

// ==================== ENUMS ====================

type TaskStatus string

const (
	TaskStatusPending          TaskStatus = "pending"
	TaskStatusProcessing       TaskStatus = "running"
	TaskStatusCompleted        TaskStatus = "completed"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusPermanentFailure TaskStatus = "PERMANENT_FAILURE"
)

// IsTerminal reports whether the task has left the pipeline, successfully or not.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusPermanentFailure:
		return true
	}
	return false
}

// AgentTypeUnknown is assigned when a new task arrives without agent_type.
// Other agent kinds are shown exactly as the producer sends them.
const AgentTypeUnknown = "UNKNOWN"

// ==================== ENTITIES ====================

type Task struct {
	ID         string     `json:"id"`
	Status     TaskStatus `json:"status,omitempty"`
	Priority   int        `json:"priority"`
	AgentType  string     `json:"agent_type"`
	Payload    JSONB      `json:"payload"`
	WorkerID   string     `json:"worker_id,omitempty"`
	Result     string     `json:"result,omitempty"`
	RetryCount int        `json:"retry_count,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TaskField identifies one mergeable Task attribute.
type TaskField uint16

const (
	FieldStatus TaskField = 1 << iota
	FieldPriority
	FieldAgentType
	FieldPayload
	FieldWorkerID
	FieldResult
	FieldRetryCount
	FieldCreatedAt
	FieldUpdatedAt
)

// TaskFields is the set of attributes an event actually carried.
type TaskFields uint16

func (f TaskFields) Has(field TaskField) bool {
	return uint16(f)&uint16(field) != 0
}

func (f TaskFields) With(field TaskField) TaskFields {
	return TaskFields(uint16(f) | uint16(field))
}

// NormalizedTask is a canonical Task plus the set of fields the producer supplied.
// Task is always fully populated (defaults filled in); Fields decides what may
// overwrite an already known entity.
type NormalizedTask struct {
	Task   Task
	Fields TaskFields
}

// TaskColumns is the board partition by lifecycle state.
type TaskColumns struct {
	Pending    []Task `json:"pending"`
	Processing []Task `json:"processing"`
	History    []Task `json:"history"`
}

// Partition splits tasks into board columns, keeping their relative order.
// Tasks with an unrecognized status appear in no column.
func Partition(tasks []Task) TaskColumns {
	cols := TaskColumns{
		Pending:    []Task{},
		Processing: []Task{},
		History:    []Task{},
	}
	for _, t := range tasks {
		switch {
		case t.Status == TaskStatusPending:
			cols.Pending = append(cols.Pending, t)
		case t.Status == TaskStatusProcessing:
			cols.Processing = append(cols.Processing, t)
		case t.Status.IsTerminal():
			cols.History = append(cols.History, t)
		}
	}
	return cols
}
