package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsMetadataAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "ticket-desk",
		Environment: "test",
	})

	ctx := WithCycleID(WithRequestID(context.Background(), "req-1"), "cycle-9")
	logger.DebugContext(ctx, "hello", "ticket_id", 7)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "ticket-desk", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "cycle-9", entry["cycle_id"])
	assert.Equal(t, float64(7), entry["ticket_id"])
}

func TestNewLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Level: "warn", Format: "text", Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(Config{Format: "json", Output: &buf})

	assert.Same(t, base, LoggerFromContext(context.Background(), base))

	LoggerFromContext(WithRequestID(context.Background(), "req-2"), base).Info("x")
	assert.Contains(t, buf.String(), `"request_id":"req-2"`)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "ticket-desk", cfg.ServiceName)
	assert.NotNil(t, cfg.Output)
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	cfg.Output = &buf
	logger := NewLogger(cfg)

	logger.Debug("dropped")
	logger.Info("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestHTTPRequestLogger_LevelByStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{status: 200, level: "INFO"},
		{status: 404, level: "WARN"},
		{status: 503, level: "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		l := &HTTPRequestLogger{Logger: NewLogger(Config{Output: &buf})}

		l.LogRequest(WithRequestID(context.Background(), "req-3"), RequestInfo{
			Method:     "GET",
			Path:       "/api/tickets",
			StatusCode: tt.status,
		})

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, tt.level, entry["level"], "status %d", tt.status)
		assert.Equal(t, "req-3", entry["request_id"])
		assert.Equal(t, float64(tt.status), entry["status_code"])
	}
}
