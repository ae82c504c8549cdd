package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/agentmesh/commandcenter/internal/domain"
)

// Event is the classification result for one decoded frame. It is always one of
// HealthUpdate, FullTask, PartialTaskUpdate or Rejected.
type Event interface {
	Kind() EventKind
}

type EventKind int

const (
	KindRejected EventKind = iota
	KindHealthUpdate
	KindFullTask
	KindPartialTaskUpdate
)

func (k EventKind) String() string {
	switch k {
	case KindHealthUpdate:
		return "health_update"
	case KindFullTask:
		return "full_task"
	case KindPartialTaskUpdate:
		return "partial_task_update"
	default:
		return "rejected"
	}
}

type HealthUpdate struct {
	Metric domain.HealthMetric
}

// RawTaskFields are the task attributes found on the wire. Nil pointers (and a
// nil Payload) mean the producer did not send the field.
type RawTaskFields struct {
	ID         string
	Status     *domain.TaskStatus
	AgentType  *string
	Priority   *int
	Payload    domain.JSONB
	WorkerID   *string
	Result     *string
	RetryCount *int
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
}

type FullTask struct {
	Task RawTaskFields
}

type PartialTaskUpdate struct {
	Task RawTaskFields
}

type Rejected struct {
	Reason domain.RejectionReason
	Detail string
}

func (HealthUpdate) Kind() EventKind      { return KindHealthUpdate }
func (FullTask) Kind() EventKind          { return KindFullTask }
func (PartialTaskUpdate) Kind() EventKind { return KindPartialTaskUpdate }
func (Rejected) Kind() EventKind          { return KindRejected }

// DecodeFrame parses one frame into a JSON object. Numbers are kept as
// json.Number so integer fields survive without float rounding.
func DecodeFrame(frame []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()

	var msg map[string]any
	if err := dec.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFrameNotJSON, err)
	}
	if msg == nil {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrFrameNotJSON)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after object", ErrFrameNotJSON)
	}
	return msg, nil
}

// Classify tags a decoded message. Checks run in a fixed order: health
// envelope, then full task, then partial update; the first match wins.
func Classify(msg map[string]any) Event {
	if t, _ := msg["type"].(string); t == domain.EventTypeHealthUpdate {
		return classifyHealth(msg)
	}

	id, hasID := nonEmptyString(msg, "id")
	status, hasStatus := nonEmptyString(msg, "status")
	agentType, hasAgent := nonEmptyString(msg, "agent_type")
	if hasID && hasStatus && hasAgent {
		fields := taskFields(msg, id)
		s := domain.TaskStatus(status)
		fields.Status = &s
		fields.AgentType = &agentType
		return FullTask{Task: fields}
	}

	if taskID, ok := nonEmptyString(msg, "task_id"); ok {
		return PartialTaskUpdate{Task: taskFields(msg, taskID)}
	}

	return Rejected{
		Reason: domain.RejectionUnrecognizedShape,
		Detail: "no health discriminator, full task shape or task_id",
	}
}

func classifyHealth(msg map[string]any) Event {
	data, ok := msg["data"].(map[string]any)
	if !ok {
		return Rejected{Reason: domain.RejectionInvalidHealth, Detail: "data is not an object"}
	}

	workerID, ok := intValue(data["worker_id"])
	if !ok {
		return Rejected{Reason: domain.RejectionInvalidHealth, Detail: "worker_id is missing or not an integer"}
	}

	metric := domain.HealthMetric{WorkerID: workerID}
	metric.CPUUsage, _ = floatValue(data["cpu_usage"])
	metric.RAMUsage, _ = floatValue(data["ram_usage"])
	metric.RAMUsedMB, _ = floatValue(data["ram_used_mb"])

	// The reading's own timestamp wins; the envelope stamp is a fallback.
	if ts, ok := nonEmptyString(data, "timestamp"); ok {
		metric.Timestamp = ts
	} else if ts, ok := nonEmptyString(msg, "timestamp"); ok {
		metric.Timestamp = ts
	}

	return HealthUpdate{Metric: metric}
}

func taskFields(msg map[string]any, id string) RawTaskFields {
	fields := RawTaskFields{ID: id}

	if s, ok := nonEmptyString(msg, "status"); ok {
		status := domain.TaskStatus(s)
		fields.Status = &status
	}
	if s, ok := nonEmptyString(msg, "agent_type"); ok {
		fields.AgentType = &s
	}
	if n, ok := intValue(msg["priority"]); ok {
		fields.Priority = &n
	}
	if p, ok := msg["payload"].(map[string]any); ok {
		fields.Payload = domain.JSONB(p)
	}
	if w, ok := idString(msg["worker_id"]); ok {
		fields.WorkerID = &w
	}
	if r, ok := msg["result"].(string); ok {
		fields.Result = &r
	}
	if n, ok := intValue(msg["retry_count"]); ok {
		fields.RetryCount = &n
	}
	if ts, ok := timeValue(msg["created_at"]); ok {
		fields.CreatedAt = &ts
	}
	if ts, ok := timeValue(msg["updated_at"]); ok {
		fields.UpdatedAt = &ts
	}

	return fields
}

func nonEmptyString(msg map[string]any, key string) (string, bool) {
	s, ok := msg[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// intValue accepts integral JSON numbers that fit in an int; 2.5 and 1e19
// are not priorities.
func intValue(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			if i < math.MinInt || i > math.MaxInt {
				return 0, false
			}
			return int(i), true
		}
	}
	f, ok := floatValue(v)
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false
	}
	// -math.MinInt is 2^63 on 64-bit platforms, the first value past MaxInt.
	if f < math.MinInt || f >= -math.MinInt {
		return 0, false
	}
	return int(f), true
}

func idString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func timeValue(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
