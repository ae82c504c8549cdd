package ports

import "github.com/agentmesh/commandcenter/internal/domain"

// BoardView is the read side handed to the presentation layer.
type BoardView interface {
	Snapshot() *domain.BoardSnapshot
	Task(id string) (domain.Task, error)
	Stats() domain.FrameStats
	Subscribe() (id string, updates <-chan *domain.BoardSnapshot)
	Unsubscribe(id string) bool
	SubscriberCount() int
}

// FrameHandler consumes raw frames and connection transitions from the supervisor.
// Implementations are driven by a single goroutine.
type FrameHandler interface {
	HandleFrame(frame []byte)
	SetConnection(state domain.ConnectionState)
}

// RejectionSink accepts dropped frames for the journal. Enqueue must not block;
// it reports false when the frame could not be accepted.
type RejectionSink interface {
	Enqueue(frame domain.RejectedFrame) bool
}
