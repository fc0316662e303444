package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("json outside development", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, "ledger", "info", "production").Debug("hidden")
		New(&buf, "ledger", "info", "production").Info("shown", "user_id", "u1")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"service":"ledger"`)
		assert.Contains(t, out, `"user_id":"u1"`)
	})

	t.Run("text with source in development debug", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, "ledger", "debug", "development").Debug("trace")

		out := buf.String()
		assert.Contains(t, out, "msg=trace")
		assert.Contains(t, out, "source=")
	})
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))
}

func TestWith_AddsAttributes(t *testing.T) {
	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)))

	ctx = With(ctx, "caller_id", "abc")
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), `"caller_id":"abc"`)
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}
