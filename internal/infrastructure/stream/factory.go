package stream

import (
	"fmt"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
)

// NewSource builds the frame source selected by cfg.Stream.Source.
func NewSource(cfg *config.Config, log *logger.Logger) (ports.FrameSource, error) {
	if log == nil {
		log = logger.NewNop()
	}
	switch cfg.Stream.Source {
	case config.SourceWebSocket:
		return NewWebSocketSource(cfg.Stream.URL, cfg.Stream.HandshakeTimeout, cfg.Stream.ReadLimit, log.Named("ws")), nil
	case config.SourceRedis:
		client := NewRedisClient(cfg.Redis)
		return NewRedisSource(client, cfg.Redis.TaskChannel, cfg.Redis.HealthChannel, log.Named("redis")), nil
	case config.SourceFile:
		return NewFileSource(cfg.Stream.File, log.Named("file")), nil
	default:
		return nil, fmt.Errorf("unknown stream source %q", cfg.Stream.Source)
	}
}
