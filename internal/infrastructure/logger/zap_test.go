package logger

import (
	"path/filepath"
	"testing"

	"github.com/agentmesh/commandcenter/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "loud", Encoding: "console"})
	require.NoError(t, err)
	assert.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Desugar().Core().Enabled(zapcore.DebugLevel))
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	log, err := New(config.LoggerConfig{
		Level:       "debug",
		Encoding:    "json",
		OutputPaths: []string{path},
	})
	require.NoError(t, err)

	log.Named("supervisor").Infow("stream_connected", "source", "websocket")
	_ = log.Sync()

	assert.FileExists(t, path)
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	log.Infow("ignored", "k", "v")
	assert.NotNil(t, log.Named("x"))
}
