package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request IDs
	RequestIDKey contextKey = "request_id"
	// CycleIDKey is the context key for reminder cycle IDs
	CycleIDKey contextKey = "cycle_id"
)

// correlationKeys are copied from the context onto every record, in order.
var correlationKeys = []contextKey{RequestIDKey, CycleIDKey}

// Config holds logger configuration
type Config struct {
	Level       string // debug, info, warn, error
	Format      string // json, text
	Output      io.Writer
	AddSource   bool
	ServiceName string
	Environment string
}

// DefaultConfig is the configuration used before settings are loaded.
func DefaultConfig() Config {
	return Config{
		Level:       "info",
		Format:      "json",
		Output:      os.Stdout,
		ServiceName: "ticket-desk",
		Environment: "development",
	}
}

// NewLogger builds a slog.Logger that stamps every record with the service
// name, the environment and any correlation ids found in the context.
func NewLogger(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: rfc3339Time,
	}

	var base slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		base = slog.NewTextHandler(out, opts)
	}

	return slog.New(&contextHandler{
		Handler: base,
		static: []slog.Attr{
			slog.String("service", cfg.ServiceName),
			slog.String("environment", cfg.Environment),
		},
	})
}

// parseLevel maps a config string to a level; unknown values mean info.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func rfc3339Time(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().Format(time.RFC3339Nano))
	}
	return a
}

// contextHandler decorates records with static metadata and correlation ids.
type contextHandler struct {
	slog.Handler
	static []slog.Attr
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.static...)
	r.AddAttrs(correlationAttrs(ctx)...)
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), static: h.static}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), static: h.static}
}

func correlationAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, key := range correlationKeys {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	return attrs
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithCycleID tags a reminder cycle so every line it logs can be correlated
func WithCycleID(ctx context.Context, cycleID string) context.Context {
	return context.WithValue(ctx, CycleIDKey, cycleID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// LoggerFromContext returns logger with the context's correlation ids bound,
// or logger itself when there are none.
func LoggerFromContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	attrs := correlationAttrs(ctx)
	if len(attrs) == 0 {
		return logger
	}
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return logger.With(args...)
}

// LogPanic logs a recovered panic value with the current goroutine's stack.
func LogPanic(logger *slog.Logger, panicValue any) {
	buf := make([]byte, 4096)
	buf = buf[:runtime.Stack(buf, false)]

	logger.Error("panic recovered",
		"panic", panicValue,
		"stack_trace", string(buf),
	)
}

// RequestInfo describes one completed HTTP request.
type RequestInfo struct {
	Method       string
	Path         string
	StatusCode   int
	Duration     time.Duration
	BytesWritten int64
	ClientIP     string
	UserAgent    string
}

// HTTPRequestLogger writes one line per request, at a level chosen by status.
type HTTPRequestLogger struct {
	Logger *slog.Logger
}

// LogRequest logs req: 5xx at error, 4xx at warn, everything else at info.
func (l *HTTPRequestLogger) LogRequest(ctx context.Context, req RequestInfo) {
	level := slog.LevelInfo
	switch {
	case req.StatusCode >= 500:
		level = slog.LevelError
	case req.StatusCode >= 400:
		level = slog.LevelWarn
	}

	l.Logger.Log(ctx, level, "http request",
		"method", req.Method,
		"path", req.Path,
		"status_code", req.StatusCode,
		"duration_ms", req.Duration.Milliseconds(),
		"bytes_written", req.BytesWritten,
		"client_ip", req.ClientIP,
		"user_agent", req.UserAgent,
	)
}
