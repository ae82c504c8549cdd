package services

import "github.com/agentmesh/commandcenter/internal/domain"

// BoardReconciler holds the authoritative task collection in first-seen order.
// It is not safe for concurrent use; BoardState is its only writer.
type BoardReconciler struct {
	tasks []domain.Task
	index map[string]int
}

func NewBoardReconciler() *BoardReconciler {
	return &BoardReconciler{index: make(map[string]int)}
}

// Apply merges n into the collection and returns the stored task. created is
// true when the id was not seen before and the task was appended.
func (r *BoardReconciler) Apply(n domain.NormalizedTask) (task domain.Task, created bool) {
	pos, ok := r.index[n.Task.ID]
	if !ok {
		r.index[n.Task.ID] = len(r.tasks)
		r.tasks = append(r.tasks, n.Task)
		return n.Task, true
	}

	merged := mergeTask(r.tasks[pos], n)
	r.tasks[pos] = merged
	return merged, false
}

// mergeTask is a right-biased shallow merge: supplied fields of the update win,
// everything else keeps the existing value. Payload is replaced as a whole.
func mergeTask(existing domain.Task, n domain.NormalizedTask) domain.Task {
	merged := existing
	in := n.Task

	if n.Fields.Has(domain.FieldStatus) {
		merged.Status = in.Status
	}
	if n.Fields.Has(domain.FieldAgentType) {
		merged.AgentType = in.AgentType
	}
	if n.Fields.Has(domain.FieldPriority) {
		merged.Priority = in.Priority
	}
	if n.Fields.Has(domain.FieldPayload) {
		merged.Payload = in.Payload
	}
	if n.Fields.Has(domain.FieldWorkerID) {
		merged.WorkerID = in.WorkerID
	}
	if n.Fields.Has(domain.FieldResult) {
		merged.Result = in.Result
	}
	if n.Fields.Has(domain.FieldRetryCount) {
		merged.RetryCount = in.RetryCount
	}
	if n.Fields.Has(domain.FieldCreatedAt) {
		merged.CreatedAt = in.CreatedAt
	}
	if n.Fields.Has(domain.FieldUpdatedAt) {
		merged.UpdatedAt = in.UpdatedAt
	}

	return merged
}

// Tasks returns a copy of the collection in board order.
func (r *BoardReconciler) Tasks() []domain.Task {
	out := make([]domain.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}
