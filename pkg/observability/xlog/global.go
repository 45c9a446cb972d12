package xlog

import (
	"context"
	"log/slog"
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger LoggerWithLevel
)

// Default 返回全局 Logger；首次调用时惰性构建一个 stderr/text/info 实例。
func Default() LoggerWithLevel {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		levelVar := new(slog.LevelVar)
		levelVar.Set(slog.LevelInfo)
		logger, _, err := New().Build()
		if err != nil {
			// New().Build() 在零配置下不会失败；保底用 noop handler。
			logger = &xlogger{handler: slog.NewTextHandler(discardWriter{}, nil), levelVar: levelVar}
		}
		globalLogger = logger
	}
	return globalLogger
}

// SetDefault 替换全局 Logger。nil 被忽略。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// Debug 用全局 Logger 记录 Debug 级别日志。
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Debug(ctx, msg, attrs...)
}

// Info 用全局 Logger 记录 Info 级别日志。
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Info(ctx, msg, attrs...)
}

// Warn 用全局 Logger 记录 Warn 级别日志。
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Warn(ctx, msg, attrs...)
}

// Error 用全局 Logger 记录 Error 级别日志。
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Error(ctx, msg, attrs...)
}
