package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_InvalidSettings(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Config{Level: "info", Encoding: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "launchpad.log")

	l, err := New(Config{
		Level:       "debug",
		Encoding:    "json",
		OutputPaths: []string{filepath.Join(t.TempDir(), "stdout.log")},
		File:        &FileConfig{Filename: path, MaxSize: 1},
	})
	require.NoError(t, err)

	l.Debug("hello file", zap.String("k", "v"))
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestWithContext_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	prev := Get()
	Set(zap.New(core))
	t.Cleanup(func() { Set(prev) })

	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, TargetKey, "app.Main")
	WithContext(ctx).Info("booting")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "run-1", fields["run_id"])
	assert.Equal(t, "app.Main", fields["target"])
}

func TestGet_DefaultsWhenUnset(t *testing.T) {
	prev := Get()
	Set(nil)
	t.Cleanup(func() { Set(prev) })

	assert.NotNil(t, Get())
}
