package logger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedAdapter(level zapcore.Level) (*ZapAdapter, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapAdapter(zap.New(core)), logs
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "debug", level: "debug"},
		{name: "info", level: "info"},
		{name: "warn", level: "warn"},
		{name: "error", level: "error"},
		{name: "unknown level", level: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.level)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, adapter)
		})
	}
}

func TestZapAdapter_Levels(t *testing.T) {
	adapter, logs := observedAdapter(zapcore.DebugLevel)
	ctx := context.Background()

	adapter.Debug(ctx, "debug message", nil)
	adapter.Info(ctx, "info message", map[string]any{"package": "api"})
	adapter.Warn(ctx, "warn message", nil)
	adapter.Error(ctx, "error message", errors.New("boom"), map[string]any{"tag": "v1.0.0"})

	entries := logs.All()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "debug message", entries[0].Message)

	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, "api", entries[1].ContextMap()["package"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
	assert.Equal(t, "v1.0.0", entries[3].ContextMap()["tag"])
}

func TestZapAdapter_Error_NilError(t *testing.T) {
	adapter, logs := observedAdapter(zapcore.ErrorLevel)

	adapter.Error(context.Background(), "failed", nil, nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].ContextMap(), "error")
}

func TestZapAdapter_LevelFiltering(t *testing.T) {
	adapter, logs := observedAdapter(zapcore.WarnLevel)
	ctx := context.Background()

	adapter.Debug(ctx, "dropped", nil)
	adapter.Info(ctx, "dropped", nil)
	adapter.Warn(ctx, "kept", nil)

	assert.Equal(t, 1, logs.Len())
}
