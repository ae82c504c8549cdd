package stream

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisSource(t *testing.T) (*miniredis.Miniredis, *RedisSource) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	src := NewRedisSource(client, "task_updates", "system_health", nil)
	src.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return mr, src
}

func TestRedisSource_PassesTaskFramesThrough(t *testing.T) {
	mr, src := newRedisSource(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := src.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	mr.Publish("task_updates", `{"task_id":"abc","status":"completed"}`)

	frame, err := conn.ReadFrame(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"abc","status":"completed"}`, string(frame))
}

func TestRedisSource_WrapsHealthMetrics(t *testing.T) {
	mr, src := newRedisSource(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := src.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	mr.Publish("system_health", `{"worker_id":3,"cpu_usage":12.5,"ram_usage":40}`)

	frame, err := conn.ReadFrame(ctx)
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, "HEALTH_UPDATE", msg["type"])
	assert.Equal(t, "2026-01-02T03:04:05Z", msg["timestamp"])
	data, ok := msg["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(3), data["worker_id"])
}

func TestRedisSource_InvalidHealthPayloadPassesThrough(t *testing.T) {
	_, src := newRedisSource(t)

	assert.Equal(t, "not json", string(src.wrapHealth("not json")))
}

func TestRedisSource_DialFailsWhenServerIsDown(t *testing.T) {
	mr, src := newRedisSource(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := src.Dial(ctx)
	assert.Error(t, err)
}

func TestRedisSource_CloseUnblocksRead(t *testing.T) {
	_, src := newRedisSource(t)
	conn, err := src.Dial(context.Background())
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := conn.ReadFrame(context.Background())
		errCh <- err
	}()

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	select {
	case err := <-errCh:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrame did not return after Close")
	}
}
