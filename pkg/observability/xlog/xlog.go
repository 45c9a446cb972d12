package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Logger 是业务代码依赖的日志接口。所有方法接受 context，便于实现方
// 提取 trace 信息；attrs 使用 slog.Attr 避免 any 键值对的运行期开销。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// With 返回携带固定属性的派生 Logger。
	With(attrs ...slog.Attr) Logger
}

// LoggerWithLevel 在 Logger 之上增加运行期动态级别控制。
type LoggerWithLevel interface {
	Logger

	// SetLevel 动态调整输出级别，立即对所有派生 Logger 生效。
	SetLevel(level Level)

	// GetLevel 返回当前级别。
	GetLevel() Level

	// Enabled 报告某级别当前是否会被输出。
	Enabled(ctx context.Context, level Level) bool
}

// xlogger 是 slog.Handler 之上的 Logger 实现。levelVar 在派生实例间
// 共享，因此 SetLevel 对整棵 With 树生效。
type xlogger struct {
	handler   slog.Handler
	levelVar  *slog.LevelVar
	addSource bool
}

func (l *xlogger) log(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.handler.Enabled(ctx, level) {
		return
	}
	var pc uintptr
	if l.addSource {
		// skip: Callers + log + 导出方法
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		pc = pcs[0]
	}
	record := slog.NewRecord(time.Now(), level, msg, pc)
	record.AddAttrs(attrs...)
	_ = l.handler.Handle(ctx, record)
}

func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, msg, attrs)
}

func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, msg, attrs)
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return &xlogger{
		handler:   l.handler.WithAttrs(attrs),
		levelVar:  l.levelVar,
		addSource: l.addSource,
	}
}

func (l *xlogger) SetLevel(level Level) {
	l.levelVar.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.levelVar.Level())
}

func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	if ctx == nil {
		ctx = context.Background()
	}
	return l.handler.Enabled(ctx, slog.Level(level))
}
