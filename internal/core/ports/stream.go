package ports

import "context"

// FrameSource opens the upstream event channel.
type FrameSource interface {
	Name() string
	Dial(ctx context.Context) (FrameConn, error)
}

// FrameConn delivers frames in arrival order. ReadFrame returns an error once
// the channel is closed (io.EOF for a clean end of stream). Close must be
// idempotent and safe to call from another goroutine to unblock ReadFrame.
type FrameConn interface {
	ReadFrame(ctx context.Context) ([]byte, error)
	Close() error
}
