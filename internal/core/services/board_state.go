package services

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/google/uuid"
)

// maxJournaledFrame caps how much of a rejected frame is kept in the journal.
const maxJournaledFrame = 8 << 10

type BoardStateConfig struct {
	Source  string
	Journal ports.RejectionSink
	Logger  *logger.Logger
	Now     func() time.Time
}

// BoardState owns the reconciled view. One goroutine (the supervisor) writes
// through HandleFrame and SetConnection; any number of readers take published
// snapshots through Snapshot or Subscribe.
type BoardState struct {
	source     string
	journal    ports.RejectionSink
	log        *logger.Logger
	now        func() time.Time
	normalizer *TaskNormalizer
	board      *BoardReconciler
	health     *HealthRegistry

	// writer-owned
	state   domain.ConnectionState
	version uint64

	current atomic.Pointer[domain.BoardSnapshot]

	frames         atomic.Uint64
	healthUpdates  atomic.Uint64
	taskEvents     atomic.Uint64
	decodeFailures atomic.Uint64
	rejected       atomic.Uint64
	journalDropped atomic.Uint64

	subsMu sync.Mutex
	subs   map[string]chan *domain.BoardSnapshot
}

func NewBoardState(cfg BoardStateConfig) *BoardState {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	s := &BoardState{
		source:     cfg.Source,
		journal:    cfg.Journal,
		log:        log,
		now:        now,
		normalizer: NewTaskNormalizer(now),
		board:      NewBoardReconciler(),
		health:     NewHealthRegistry(now),
		state:      domain.ConnectionDisconnected,
		subs:       make(map[string]chan *domain.BoardSnapshot),
	}
	s.publish()
	return s
}

var _ ports.FrameHandler = (*BoardState)(nil)
var _ ports.BoardView = (*BoardState)(nil)

// HandleFrame processes one raw frame. Malformed or unrecognized input is
// logged, journaled and dropped; it never fails.
func (s *BoardState) HandleFrame(frame []byte) {
	s.Process(frame)
}

// Process is HandleFrame returning the classification outcome.
func (s *BoardState) Process(frame []byte) Event {
	s.frames.Add(1)

	msg, err := DecodeFrame(frame)
	if err != nil {
		s.decodeFailures.Add(1)
		s.log.Warnw("stream_frame_decode_failed", "source", s.source, "bytes", len(frame), "error", err)
		rej := Rejected{Reason: domain.RejectionDecodeFailed, Detail: err.Error()}
		s.reject(frame, rej, nil)
		return rej
	}

	ev := Classify(msg)
	switch e := ev.(type) {
	case HealthUpdate:
		s.healthUpdates.Add(1)
		s.health.Record(e.Metric)
		s.log.Debugw("stream_health_recorded", "worker_id", e.Metric.WorkerID, "cpu", e.Metric.CPUUsage, "ram", e.Metric.RAMUsage)
		s.publish()

	case FullTask, PartialTaskUpdate:
		s.taskEvents.Add(1)
		normalized, _ := s.normalizer.Normalize(ev)
		task, created := s.board.Apply(normalized)
		s.log.Debugw("stream_task_applied", "task_id", task.ID, "kind", ev.Kind().String(), "status", task.Status, "created", created)
		s.publish()

	case Rejected:
		s.rejected.Add(1)
		s.log.Warnw("stream_frame_rejected", "source", s.source, "reason", e.Reason, "detail", e.Detail)
		s.reject(frame, e, msg)
	}

	return ev
}

// SetConnection records a supervisor transition and publishes the new liveness.
func (s *BoardState) SetConnection(state domain.ConnectionState) {
	if s.state == state {
		return
	}
	s.state = state
	s.publish()
}

// reject journals a dropped frame. msg is the decoded object when the frame
// parsed; it is kept only for frames small enough to be journaled whole.
func (s *BoardState) reject(frame []byte, rej Rejected, msg map[string]any) {
	if s.journal == nil {
		return
	}
	record := domain.RejectedFrame{
		CreatedAt: s.now().UTC(),
		Source:    s.source,
		Reason:    rej.Reason,
		Detail:    journalText([]byte(rej.Detail), maxJournaledFrame),
		Raw:       journalText(frame, maxJournaledFrame),
	}
	if msg != nil && len(frame) <= maxJournaledFrame {
		record.Payload = domain.JSONB(msg)
	}
	if !s.journal.Enqueue(record) {
		s.journalDropped.Add(1)
	}
}

// journalText makes raw frame bytes storable as Postgres text: at most limit
// input bytes, cut on a rune boundary, with invalid UTF-8 and NUL replaced by
// U+FFFD.
func journalText(b []byte, limit int) string {
	if len(b) > limit {
		cut := limit
		for i := 0; i < utf8.UTFMax-1 && cut > 0 && !utf8.RuneStart(b[cut]); i++ {
			cut--
		}
		if !utf8.RuneStart(b[cut]) {
			cut = limit
		}
		b = b[:cut]
	}
	text := strings.ToValidUTF8(string(b), "\uFFFD")
	return strings.ReplaceAll(text, "\x00", "\uFFFD")
}

// publish builds a fresh snapshot from writer state and fans it out. Snapshots
// share Payload maps with the reconciler; those maps are replaced, never
// mutated, so sharing is safe.
func (s *BoardState) publish() {
	s.version++
	tasks := s.board.Tasks()
	snap := &domain.BoardSnapshot{
		Version:   s.version,
		Tasks:     tasks,
		Columns:   domain.Partition(tasks),
		Health:    s.health.Snapshot(),
		Connected: s.state.Live(),
		State:     s.state,
		UpdatedAt: s.now().UTC(),
	}
	s.current.Store(snap)

	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		offer(ch, snap)
	}
}

// offer delivers snap without blocking, replacing an undelivered older snapshot.
func offer(ch chan *domain.BoardSnapshot, snap *domain.BoardSnapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snap:
	default:
	}
}

func (s *BoardState) Snapshot() *domain.BoardSnapshot {
	return s.current.Load()
}

// Task looks a task up in the latest snapshot.
func (s *BoardState) Task(id string) (domain.Task, error) {
	task, ok := s.Snapshot().Task(id)
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, nil
}

func (s *BoardState) Stats() domain.FrameStats {
	return domain.FrameStats{
		Frames:         s.frames.Load(),
		HealthUpdates:  s.healthUpdates.Load(),
		TaskEvents:     s.taskEvents.Load(),
		DecodeFailures: s.decodeFailures.Load(),
		Rejected:       s.rejected.Load(),
		JournalDropped: s.journalDropped.Load(),
	}
}

// Subscribe registers a reader. The channel holds at most one pending snapshot:
// the latest. It is closed by Unsubscribe.
func (s *BoardState) Subscribe() (string, <-chan *domain.BoardSnapshot) {
	id := uuid.New().String()
	ch := make(chan *domain.BoardSnapshot, 1)

	s.subsMu.Lock()
	s.subs[id] = ch
	s.subsMu.Unlock()

	return id, ch
}

func (s *BoardState) Unsubscribe(id string) bool {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	ch, ok := s.subs[id]
	if !ok {
		return false
	}
	delete(s.subs, id)
	close(ch)
	return true
}

func (s *BoardState) SubscriberCount() int {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	return len(s.subs)
}
