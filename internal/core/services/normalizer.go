package services

import (
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
)

// TaskNormalizer turns classified task events into canonical tasks.
type TaskNormalizer struct {
	now func() time.Time
}

func NewTaskNormalizer(now func() time.Time) *TaskNormalizer {
	if now == nil {
		now = time.Now
	}
	return &TaskNormalizer{now: now}
}

// Normalize converts a FullTask or PartialTaskUpdate. The boolean is false for
// any other event kind. Absent fields get defaults in the returned Task but are
// left out of Fields, so they only matter when the task is first seen.
func (n *TaskNormalizer) Normalize(ev Event) (domain.NormalizedTask, bool) {
	switch e := ev.(type) {
	case FullTask:
		return n.canonical(e.Task), true
	case PartialTaskUpdate:
		return n.canonical(e.Task), true
	default:
		return domain.NormalizedTask{}, false
	}
}

func (n *TaskNormalizer) canonical(raw RawTaskFields) domain.NormalizedTask {
	now := n.now().UTC()
	task := domain.Task{
		ID:        raw.ID,
		AgentType: domain.AgentTypeUnknown,
		Payload:   domain.JSONB{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	var fields domain.TaskFields

	if raw.Status != nil {
		task.Status = *raw.Status
		fields = fields.With(domain.FieldStatus)
	}
	if raw.AgentType != nil {
		task.AgentType = *raw.AgentType
		fields = fields.With(domain.FieldAgentType)
	}
	if raw.Priority != nil {
		task.Priority = *raw.Priority
		fields = fields.With(domain.FieldPriority)
	}
	if raw.Payload != nil {
		task.Payload = raw.Payload
		fields = fields.With(domain.FieldPayload)
	}
	if raw.WorkerID != nil {
		task.WorkerID = *raw.WorkerID
		fields = fields.With(domain.FieldWorkerID)
	}
	if raw.Result != nil {
		task.Result = *raw.Result
		fields = fields.With(domain.FieldResult)
	}
	if raw.RetryCount != nil {
		task.RetryCount = *raw.RetryCount
		fields = fields.With(domain.FieldRetryCount)
	}
	if raw.CreatedAt != nil {
		task.CreatedAt = *raw.CreatedAt
		fields = fields.With(domain.FieldCreatedAt)
	}
	if raw.UpdatedAt != nil {
		task.UpdatedAt = *raw.UpdatedAt
		fields = fields.With(domain.FieldUpdatedAt)
	}

	return domain.NormalizedTask{Task: task, Fields: fields}
}
