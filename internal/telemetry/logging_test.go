package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for value, want := range tests {
		t.Setenv("LOG_LEVEL", value)
		assert.Equal(t, want, LogLevel(), "LOG_LEVEL=%q", value)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer

	logger := WithNodeID(WithRunID(NewLogger(&buf, "json"), "run-1"), "n1", "sort")
	logger.Info("node finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "node finished", entry["msg"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "n1", entry["node_id"])
	assert.Equal(t, "sort", entry["kind"])
}

func TestNewLogger_Text(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	var buf bytes.Buffer

	NewLogger(&buf, "text").Info("run started", "nodes", 3)
	assert.True(t, strings.Contains(buf.String(), "nodes=3"), buf.String())
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
