package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for input, want := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(input))
		})
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "json", &buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithFamily(ctx, "luo")
	FromContext(ctx).Info("asserted", "code", 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "req-1", record["request_id"])
	assert.Equal(t, "luo", record["family"])
	assert.Equal(t, "asserted", record["msg"])
	assert.Equal(t, "req-1", RequestID(ctx))
}

func TestInit_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	Init("error", "text", &buf)

	Default().Info("hidden")
	assert.Empty(t, buf.String())

	Default().Error("shown")
	assert.Contains(t, buf.String(), "shown")
}
