package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func normalize(t *testing.T, frame string) domain.NormalizedTask {
	t.Helper()
	msg, err := DecodeFrame([]byte(frame))
	require.NoError(t, err)
	n, ok := NewTaskNormalizer(fixedClock).Normalize(Classify(msg))
	require.True(t, ok, "frame %s is not task-shaped", frame)
	return n
}

func ids(tasks []domain.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.ID)
	}
	return out
}

func TestNormalize_PartialDefaults(t *testing.T) {
	n := normalize(t, `{"task_id":"t1"}`)

	assert.Equal(t, "t1", n.Task.ID)
	assert.Equal(t, domain.TaskStatus(""), n.Task.Status)
	assert.Equal(t, domain.AgentTypeUnknown, n.Task.AgentType)
	assert.Equal(t, 0, n.Task.Priority)
	assert.Equal(t, domain.JSONB{}, n.Task.Payload)
	assert.Equal(t, fixedNow, n.Task.CreatedAt)
	assert.Equal(t, fixedNow, n.Task.UpdatedAt)
	assert.Equal(t, domain.TaskFields(0), n.Fields)
}

func TestNormalize_FullTaskMarksSuppliedFields(t *testing.T) {
	n := normalize(t, `{"id":"t1","status":"pending","agent_type":"MAGNUS_STRATEGIST","priority":0,"updated_at":"2025-01-01T00:00:00Z"}`)

	assert.True(t, n.Fields.Has(domain.FieldStatus))
	assert.True(t, n.Fields.Has(domain.FieldAgentType))
	assert.True(t, n.Fields.Has(domain.FieldPriority))
	assert.True(t, n.Fields.Has(domain.FieldUpdatedAt))
	assert.False(t, n.Fields.Has(domain.FieldPayload))
	assert.False(t, n.Fields.Has(domain.FieldCreatedAt))
	assert.Equal(t, fixedNow, n.Task.CreatedAt)
}

func TestNormalize_NonTaskEvent(t *testing.T) {
	_, ok := NewTaskNormalizer(nil).Normalize(HealthUpdate{})
	assert.False(t, ok)
	_, ok = NewTaskNormalizer(nil).Normalize(Rejected{})
	assert.False(t, ok)
}

func TestBoardReconciler_AppendsNewTasks(t *testing.T) {
	r := NewBoardReconciler()

	_, created := r.Apply(normalize(t, `{"id":"b","status":"pending","agent_type":"X"}`))
	assert.True(t, created)
	_, created = r.Apply(normalize(t, `{"id":"a","status":"pending","agent_type":"X"}`))
	assert.True(t, created)

	assert.Equal(t, []string{"b", "a"}, ids(r.Tasks()))
}

func TestBoardReconciler_UpdateKeepsPosition(t *testing.T) {
	r := NewBoardReconciler()
	r.Apply(normalize(t, `{"id":"b","status":"pending","agent_type":"X"}`))
	r.Apply(normalize(t, `{"id":"a","status":"pending","agent_type":"X"}`))

	task, created := r.Apply(normalize(t, `{"task_id":"b","status":"running"}`))

	assert.False(t, created)
	assert.Equal(t, domain.TaskStatusProcessing, task.Status)
	assert.Equal(t, []string{"b", "a"}, ids(r.Tasks()))
}

func TestBoardReconciler_MergePreservesUnsentFields(t *testing.T) {
	r := NewBoardReconciler()
	r.Apply(normalize(t, `{"id":"t","status":"pending","agent_type":"CEDRIC_WRITER","priority":4,"payload":{"x":1},"worker_id":"w-2"}`))

	merged, _ := r.Apply(normalize(t, `{"task_id":"t","status":"failed"}`))

	assert.Equal(t, domain.TaskStatusFailed, merged.Status)
	assert.Equal(t, "CEDRIC_WRITER", merged.AgentType)
	assert.Equal(t, 4, merged.Priority)
	assert.Equal(t, "w-2", merged.WorkerID)
	require.Contains(t, merged.Payload, "x")
	assert.Equal(t, "1", fmt.Sprint(merged.Payload["x"]))
}

func TestBoardReconciler_StatuslessUpdateKeepsStatus(t *testing.T) {
	r := NewBoardReconciler()
	r.Apply(normalize(t, `{"id":"t","status":"running","agent_type":"X"}`))

	merged, _ := r.Apply(normalize(t, `{"task_id":"t","result":"ok"}`))

	assert.Equal(t, domain.TaskStatusProcessing, merged.Status)
	assert.Equal(t, "ok", merged.Result)
}

func TestBoardReconciler_SynthesizedTimestampsDoNotOverwrite(t *testing.T) {
	r := NewBoardReconciler()
	r.Apply(normalize(t, `{"id":"t","status":"pending","agent_type":"X","created_at":"2024-05-05T10:00:00Z","updated_at":"2024-05-05T10:00:00Z"}`))

	merged, _ := r.Apply(normalize(t, `{"task_id":"t","status":"running"}`))

	assert.Equal(t, 2024, merged.CreatedAt.Year())
	assert.Equal(t, 2024, merged.UpdatedAt.Year())
}

func TestBoardReconciler_Idempotent(t *testing.T) {
	n := normalize(t, `{"id":"t","status":"running","agent_type":"X","payload":{"k":"v"}}`)

	once := NewBoardReconciler()
	once.Apply(n)

	twice := NewBoardReconciler()
	twice.Apply(n)
	twice.Apply(n)

	assert.Equal(t, once.Tasks(), twice.Tasks())
}

func TestBoardReconciler_Uniqueness(t *testing.T) {
	r := NewBoardReconciler()
	frames := []string{
		`{"id":"1","status":"pending","agent_type":"X"}`,
		`{"task_id":"2","status":"pending"}`,
		`{"task_id":"1","status":"running"}`,
		`{"id":"3","status":"pending","agent_type":"X"}`,
		`{"task_id":"2","status":"completed"}`,
		`{"id":"1","status":"completed","agent_type":"X"}`,
		`{"task_id":"3"}`,
	}
	for _, f := range frames {
		r.Apply(normalize(t, f))
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(r.Tasks()))
}

func TestBoardReconciler_PartialCreatesWithDefaults(t *testing.T) {
	r := NewBoardReconciler()
	task, created := r.Apply(normalize(t, `{"task_id":"p"}`))

	require.True(t, created)
	assert.Equal(t, domain.AgentTypeUnknown, task.AgentType)
	assert.Equal(t, []string{"p"}, ids(r.Tasks()))
}

func TestBoardReconciler_TasksIsACopy(t *testing.T) {
	r := NewBoardReconciler()
	r.Apply(normalize(t, `{"id":"t","status":"pending","agent_type":"X"}`))

	tasks := r.Tasks()
	tasks[0].Status = domain.TaskStatusFailed

	assert.Equal(t, domain.TaskStatusPending, r.Tasks()[0].Status)
}
