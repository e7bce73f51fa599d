// internal/pkg/logger/logger_test.go
package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestNew_JSONAddsContextAndServiceFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&LogConfig{Level: "debug", Format: "json", ServiceName: "stockledger-api", Environment: "test"}, &buf)

	userID := uuid.New()
	ctx := WithValue(context.Background(), ContextKeyRequestID, "req-1")
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)

	l.InfoContext(ctx, "sale created", slog.Int("lines", 2))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "sale created", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, userID.String(), entry["user_id"])
	assert.Equal(t, "stockledger-api", entry["service"])
	assert.Equal(t, "test", entry["env"])
	assert.EqualValues(t, 2, entry["lines"])
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		log     func(l *slog.Logger)
		written bool
	}{
		{name: "debug_hidden_at_info", level: "info", log: func(l *slog.Logger) { l.Debug("x") }, written: false},
		{name: "warn_shown_at_info", level: "info", log: func(l *slog.Logger) { l.Warn("x") }, written: true},
		{name: "info_hidden_at_error", level: "error", log: func(l *slog.Logger) { l.Info("x") }, written: false},
		{name: "unknown_level_defaults_to_info", level: "loud", log: func(l *slog.Logger) { l.Info("x") }, written: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(&LogConfig{Level: tt.level, Format: "json"}, &buf))
			assert.Equal(t, tt.written, buf.Len() > 0)
		})
	}
}

func TestSanitizationHandler(t *testing.T) {
	tests := []struct {
		name    string
		log     func(l *slog.Logger)
		absent  string
		present string
	}{
		{
			name:    "password_attribute_is_redacted",
			log:     func(l *slog.Logger) { l.Info("login", slog.String("password", "hunter22")) },
			absent:  "hunter22",
			present: redacted,
		},
		{
			name:    "bearer_in_message_is_redacted",
			log:     func(l *slog.Logger) { l.Info("header Authorization: Bearer abc.def.ghi") },
			absent:  "abc.def.ghi",
			present: "Bearer " + redacted,
		},
		{
			name: "nested_group_is_redacted",
			log: func(l *slog.Logger) {
				l.Info("config", slog.Group("security", slog.String("jwt_secret", "s3cr3t")))
			},
			absent:  "s3cr3t",
			present: redacted,
		},
		{
			name:    "token_id_is_kept",
			log:     func(l *slog.Logger) { l.Info("token revoked", slog.String("token_id", "jti-123")) },
			present: "jti-123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(New(&LogConfig{Level: "info", Format: "json"}, &buf))
			out := buf.String()
			if tt.absent != "" {
				assert.NotContains(t, out, tt.absent)
			}
			assert.Contains(t, out, tt.present)
		})
	}
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	l := New(&LogConfig{Level: "info", Format: "text"}, &buf)

	l.With(slog.String("service", "sales")).WithGroup("sale").Info("created", slog.Int("lines", 3))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "created")
	assert.Contains(t, out, "service")
	assert.Contains(t, out, "sale.lines")
}

func TestSamplingHandler_AlwaysKeepsWarnings(t *testing.T) {
	var buf bytes.Buffer
	l := New(&LogConfig{Level: "debug", Format: "json", SampleRate: 0.0001}, &buf)

	for i := 0; i < 10; i++ {
		l.Warn("low stock")
	}
	assert.Equal(t, 10, strings.Count(buf.String(), "low stock"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&LogConfig{Level: "info", Format: "json"}, &buf)

	ctx := WithLogger(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
	assert.Equal(t, "", RequestID(context.Background()))
	assert.Equal(t, "r-9", RequestID(WithValue(context.Background(), ContextKeyRequestID, "r-9")))
}
