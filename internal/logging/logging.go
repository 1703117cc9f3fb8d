// Package logging provides structured JSON logging with request correlation.
// No alert payloads, tokens, or provider credentials are logged; redaction
// happens in internal/tools before evidence reaches the log sink or the LLM.
// Grounded on the teacher's go.uber.org/zap dependency: zap's JSON core
// backs the slog.Logger every package in this tree calls into, bridged
// through go.uber.org/zap/exp/zapslog rather than slog's own handlers, the
// same "zap under the hood, slog on the surface" shape the teacher's own
// logging setup uses.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	caseIDKey    contextKey = "case_id"
	threadIDKey  contextKey = "thread_id"
)

// New builds the process-wide logger. format is "json" or "text"; level is
// one of debug|info|warn|error. The returned *slog.Logger is backed by a
// zap core so every log line goes through zap's allocation-light encoder.
func New(format, level string) *slog.Logger {
	l, _ := NewWithZap(format, level)
	return l
}

// NewWithZap builds both the slog façade and the zap.Logger backing it, for
// callers (cmd/worker, cmd/api) that also need to bridge client-go's klog
// output into the same sink via go-logr/zapr.
func NewWithZap(format, level string) (*slog.Logger, *zap.Logger) {
	zl := NewZapCore(format, level)
	return slog.New(zapslog.NewHandler(zl.Core())), zl
}

// NewZapCore builds the underlying zap.Logger directly, for callers (e.g.
// cmd/worker, cmd/api) that need to bridge client-go's klog output into the
// same sink via go-logr/zapr rather than going through the slog façade.
func NewZapCore(format, level string) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	out := zapcore.Lock(os.Stdout)
	if format == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
		out = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, out, parseZapLevel(level))
	return zap.New(core)
}

func parseZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithRequestID returns a context carrying the HTTP request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithCaseID returns a context carrying the case id for log correlation.
func WithCaseID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, caseIDKey, id)
}

// WithThreadID returns a context carrying the chat thread id.
func WithThreadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, threadIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// FromContext returns a logger enriched with whatever correlation ids are
// present in ctx. Falls back to slog.Default() if l is nil.
func FromContext(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		l = l.With("request_id", v)
	}
	if v, ok := ctx.Value(caseIDKey).(string); ok && v != "" {
		l = l.With("case_id", v)
	}
	if v, ok := ctx.Value(threadIDKey).(string); ok && v != "" {
		l = l.With("thread_id", v)
	}
	return l
}

// AccessEntry is the structured payload written for one finished HTTP request.
type AccessEntry struct {
	Time       string  `json:"time"`
	Level      string  `json:"level"`
	RequestID  string  `json:"request_id,omitempty"`
	Method     string  `json:"method,omitempty"`
	Path       string  `json:"path,omitempty"`
	Status     int     `json:"status,omitempty"`
	DurationMs float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// WriteAccessLog writes a single JSON line for an HTTP request. Used by the
// chi middleware in internal/httpapi instead of chi's default logger, so
// that access logs share the request_id field with application logs.
func WriteAccessLog(out *os.File, reqID, method, path string, status int, d time.Duration, errMsg string) {
	level := "info"
	if status >= 500 {
		level = "error"
	} else if status >= 400 {
		level = "warn"
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(AccessEntry{
		Time:       time.Now().UTC().Format(time.RFC3339Nano),
		Level:      level,
		RequestID:  reqID,
		Method:     method,
		Path:       path,
		Status:     status,
		DurationMs: float64(d.Microseconds()) / 1000.0,
		Error:      errMsg,
	})
}

// Discard returns a logger that drops everything; used in unit tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
