package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryazanov-dist/quorumlock/pkg/observability/xrotate"
)

func buildBufferLogger(t *testing.T, configure func(*Builder) *Builder) (LoggerWithLevel, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	b := New().SetOutput(&buf)
	if configure != nil {
		b = configure(b)
	}
	logger, cleanup, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, &buf
}

func TestLogger_TextOutput(t *testing.T) {
	logger, buf := buildBufferLogger(t, nil)

	logger.Info(context.Background(), "lease acquired", LockKey("jobs:nightly"), Attempt(2))

	out := buf.String()
	assert.Contains(t, out, "lease acquired")
	assert.Contains(t, out, "lock_key=")
	assert.Contains(t, out, "jobs:nightly")
	assert.Contains(t, out, "attempt=2")
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := buildBufferLogger(t, func(b *Builder) *Builder {
		return b.SetFormat("json")
	})

	logger.Error(context.Background(), "renewal failed", Err(assert.AnError), Store("redis-1"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "renewal failed", entry["msg"])
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, assert.AnError.Error(), entry["error"])
	assert.Equal(t, "redis-1", entry["store"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := buildBufferLogger(t, func(b *Builder) *Builder {
		return b.SetLevel(LevelWarn)
	})

	ctx := context.Background()
	logger.Debug(ctx, "too quiet")
	logger.Info(ctx, "still too quiet")
	logger.Warn(ctx, "loud enough")

	out := buf.String()
	assert.NotContains(t, out, "too quiet")
	assert.Contains(t, out, "loud enough")
}

func TestLogger_DynamicLevel(t *testing.T) {
	logger, buf := buildBufferLogger(t, nil)
	ctx := context.Background()

	assert.Equal(t, LevelInfo, logger.GetLevel())
	assert.False(t, logger.Enabled(ctx, LevelDebug))

	logger.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_WithSharesLevel(t *testing.T) {
	logger, buf := buildBufferLogger(t, nil)
	derived := logger.With(Component("supervisor"))

	// 动态调级要穿透 With 派生的实例。
	logger.SetLevel(LevelError)
	derived.Info(context.Background(), "suppressed")
	assert.NotContains(t, buf.String(), "suppressed")

	logger.SetLevel(LevelInfo)
	derived.Info(context.Background(), "emitted")
	assert.Contains(t, buf.String(), "component=supervisor")
}

func TestBuilder_InvalidConfigSurfacesAtBuild(t *testing.T) {
	_, _, err := New().SetFormat("yaml").Build()
	assert.Error(t, err)

	_, _, err = New().SetLevelString("verbose").Build()
	assert.Error(t, err)

	_, _, err = New().SetOutput(nil).Build()
	assert.Error(t, err)
}

func TestBuilder_BuildIsOneShot(t *testing.T) {
	b := New()
	_, cleanup, err := b.Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	_, _, err = b.Build()
	assert.Error(t, err, "a builder must refuse to build twice")
}

func TestBuilder_RotationWritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lock.log")

	logger, cleanup, err := New().
		SetFormat("json").
		SetRotation(path, xrotate.WithMaxSizeMB(1), xrotate.WithCompress(false)).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "rotated output works", LockKey("k"))
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rotated output works")
}
