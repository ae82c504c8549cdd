package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

// ReconnectPolicy decides what happens after the channel drops. With Enabled
// false a close is terminal.
type ReconnectPolicy struct {
	Enabled        bool
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Backoff returns the wait before reconnect attempt n (0-based): the initial
// backoff doubled per attempt, capped at MaxBackoff.
func (p ReconnectPolicy) Backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	if d <= 0 {
		d = time.Second
	}
	for i := 0; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

type SupervisorConfig struct {
	Source  ports.FrameSource
	Handler ports.FrameHandler
	Policy  ReconnectPolicy
	Logger  *logger.Logger
}

// Supervisor owns the stream channel lifecycle:
//
//	disconnected -> connecting -> connected -> disconnected -> (connecting | closed)
//
// Every frame read while connected goes to the handler on the supervisor's
// goroutine, in arrival order.
type Supervisor struct {
	source  ports.FrameSource
	handler ports.FrameHandler
	policy  ReconnectPolicy
	log     *logger.Logger

	running atomic.Bool
	state   atomic.Value
}

func NewSupervisor(cfg SupervisorConfig) *Supervisor {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	s := &Supervisor{
		source:  cfg.Source,
		handler: cfg.Handler,
		policy:  cfg.Policy,
		log:     log,
	}
	s.state.Store(domain.ConnectionDisconnected)
	return s
}

func (s *Supervisor) State() domain.ConnectionState {
	return s.state.Load().(domain.ConnectionState)
}

func (s *Supervisor) transition(next domain.ConnectionState) {
	prev := s.State()
	if prev == next {
		return
	}
	s.state.Store(next)
	s.handler.SetConnection(next)
	s.log.Infow("stream_state_changed", "source", s.source.Name(), "from", prev, "to", next)
}

// Run connects and consumes frames until ctx is cancelled or, without a
// reconnect policy, until the channel closes. It returns an error only when the
// first connection attempt fails and reconnecting is disabled. The channel is
// always closed before Run returns.
func (s *Supervisor) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSupervisorRunning
	}
	defer s.running.Store(false)
	defer s.transition(domain.ConnectionClosed)

	attempt := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		s.transition(domain.ConnectionConnecting)
		conn, err := s.source.Dial(ctx)
		if err != nil {
			s.transition(domain.ConnectionDisconnected)
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warnw("stream_connect_failed", "source", s.source.Name(), "attempt", attempt+1, "error", err)
			if !s.policy.Enabled {
				return fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, s.source.Name(), err)
			}
			if !s.wait(ctx, attempt) {
				return nil
			}
			attempt++
			continue
		}

		attempt = 0
		s.transition(domain.ConnectionConnected)
		err = s.consume(ctx, conn)
		s.transition(domain.ConnectionDisconnected)

		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, io.EOF) {
			s.log.Infow("stream_ended", "source", s.source.Name())
		} else {
			s.log.Warnw("stream_closed", "source", s.source.Name(), "error", err)
		}
		if !s.policy.Enabled {
			return nil
		}
		if !s.wait(ctx, attempt) {
			return nil
		}
		attempt++
	}
}

func (s *Supervisor) consume(ctx context.Context, conn ports.FrameConn) error {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})
	defer func() {
		stop()
		_ = conn.Close()
	}()

	for {
		frame, err := conn.ReadFrame(ctx)
		if err != nil {
			return err
		}
		s.handler.HandleFrame(frame)
	}
}

func (s *Supervisor) wait(ctx context.Context, attempt int) bool {
	d := s.policy.Backoff(attempt)
	s.log.Infow("stream_reconnect_scheduled", "source", s.source.Name(), "backoff", d)

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
