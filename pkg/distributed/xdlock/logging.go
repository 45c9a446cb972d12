package xdlock

import (
	"context"
	"log/slog"

	"github.com/ryazanov-dist/quorumlock/pkg/observability/xlog"
)

// Logger is the narrow, backend-agnostic collaborator the core optionally
// consumes. The core never requires a logger; a nil Logger (or one obtained
// via WithLogger(nil)) is always treated as a discarding logger — this keeps
// xdlock free of any hard dependency on a logging library.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any)        {}
func (noopLogger) Info(string, map[string]any)         {}
func (noopLogger) Warn(string, map[string]any)         {}
func (noopLogger) Error(string, error, map[string]any) {}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}

// slogAdapter bridges the package's Logger contract onto an xlog.Logger,
// which is the structured-logging backend the rest of this module's ambient
// stack uses. Constructed via NewSlogLogger; an xlog.LoggerWithLevel (e.g.
// from xlog.New().Build()) does not itself satisfy Logger, so callers wrap
// it with NewSlogLogger before handing it to any WithLogger option.
type slogAdapter struct {
	inner xlog.Logger
}

// NewSlogLogger adapts an xlog.Logger to the Logger contract this package
// consumes, so the module's own structured-logging stack can back every
// WithLogger option.
func NewSlogLogger(inner xlog.Logger) Logger {
	return &slogAdapter{inner: inner}
}

func toAttrs(fields map[string]any) []slog.Attr {
	if len(fields) == 0 {
		return nil
	}
	attrs := make([]slog.Attr, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (a *slogAdapter) Debug(msg string, fields map[string]any) {
	a.inner.Debug(context.Background(), msg, toAttrs(fields)...)
}

func (a *slogAdapter) Info(msg string, fields map[string]any) {
	a.inner.Info(context.Background(), msg, toAttrs(fields)...)
}

func (a *slogAdapter) Warn(msg string, fields map[string]any) {
	a.inner.Warn(context.Background(), msg, toAttrs(fields)...)
}

func (a *slogAdapter) Error(msg string, err error, fields map[string]any) {
	attrs := toAttrs(fields)
	if err != nil {
		attrs = append(attrs, xlog.Err(err))
	}
	a.inner.Error(context.Background(), msg, attrs...)
}
