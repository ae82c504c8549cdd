package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/agentmesh/commandcenter/internal/core/ports"
	"github.com/agentmesh/commandcenter/internal/domain"
	"github.com/agentmesh/commandcenter/internal/infrastructure/logger"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisSource taps the producer's pub/sub channels directly. Task channel
// payloads are passed through as-is; health channel payloads carry a bare
// metric and are wrapped in the HEALTH_UPDATE envelope the producer's
// websocket would have sent.
type RedisSource struct {
	client        *redis.Client
	taskChannel   string
	healthChannel string
	now           func() time.Time
	log           *logger.Logger
}

func NewRedisSource(client *redis.Client, taskChannel, healthChannel string, log *logger.Logger) *RedisSource {
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisSource{
		client:        client,
		taskChannel:   taskChannel,
		healthChannel: healthChannel,
		now:           time.Now,
		log:           log,
	}
}

var _ ports.FrameSource = (*RedisSource)(nil)

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) Dial(ctx context.Context) (ports.FrameConn, error) {
	pubsub := s.client.Subscribe(ctx, s.taskChannel, s.healthChannel)

	// Subscribe is lazy; wait for the confirmation so dial errors surface here.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s,%s: %w", s.taskChannel, s.healthChannel, err)
	}

	s.log.Infow("stream_connected", "source", s.Name(), "addr", s.client.Options().Addr,
		"channels", []string{s.taskChannel, s.healthChannel})
	return &redisConn{source: s, pubsub: pubsub}, nil
}

type redisConn struct {
	source *RedisSource
	pubsub *redis.PubSub
	once   sync.Once
	err    error
}

func (c *redisConn) ReadFrame(ctx context.Context) ([]byte, error) {
	msg, err := c.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	if msg.Channel == c.source.healthChannel {
		return c.source.wrapHealth(msg.Payload), nil
	}
	return []byte(msg.Payload), nil
}

func (c *redisConn) Close() error {
	c.once.Do(func() {
		c.err = c.pubsub.Close()
	})
	return c.err
}

type healthEnvelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// wrapHealth builds the HEALTH_UPDATE frame for a raw metric. A payload that is
// not valid JSON is passed through untouched so the classifier rejects it.
func (s *RedisSource) wrapHealth(payload string) []byte {
	if !json.Valid([]byte(payload)) {
		return []byte(payload)
	}
	out, err := json.Marshal(healthEnvelope{
		Type:      domain.EventTypeHealthUpdate,
		Data:      json.RawMessage(payload),
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return []byte(payload)
	}
	return out
}
