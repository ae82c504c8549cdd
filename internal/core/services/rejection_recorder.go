package services

import (
	"context"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

const journalWriteTimeout = 5 * time.Second

// RejectionRecorder moves rejected frames off the frame handler's goroutine
// and into the journal repository.
type RejectionRecorder struct {
	repo  ports.RejectionRepository
	queue chan domain.RejectedFrame
	log   *logger.Logger
}

func NewRejectionRecorder(repo ports.RejectionRepository, bufferSize int, log *logger.Logger) *RejectionRecorder {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RejectionRecorder{
		repo:  repo,
		queue: make(chan domain.RejectedFrame, bufferSize),
		log:   log,
	}
}

var _ ports.RejectionSink = (*RejectionRecorder)(nil)

func (r *RejectionRecorder) Enqueue(frame domain.RejectedFrame) bool {
	select {
	case r.queue <- frame:
		return true
	default:
		return false
	}
}

// Run writes queued frames until ctx is done, then flushes what is already
// queued with a short deadline.
func (r *RejectionRecorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return
		case frame := <-r.queue:
			r.write(ctx, frame)
		}
	}
}

func (r *RejectionRecorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	for {
		select {
		case frame := <-r.queue:
			r.write(ctx, frame)
		default:
			return
		}
	}
}

func (r *RejectionRecorder) write(ctx context.Context, frame domain.RejectedFrame) {
	ctx, cancel := context.WithTimeout(ctx, journalWriteTimeout)
	defer cancel()
	if err := r.repo.Create(ctx, &frame); err != nil {
		r.log.Errorw("journal_write_failed", "reason", frame.Reason, "source", frame.Source, "error", err)
	}
}
