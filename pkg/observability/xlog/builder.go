package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ryazanov-dist/quorumlock/pkg/observability/xrotate"
)

// Builder 一次性组装一个 LoggerWithLevel。输出目标遵循 last-wins：
// SetRotation 之后再 SetOutput 会覆盖轮转器的输出，反之亦然。
type Builder struct {
	output    io.Writer
	rotator   xrotate.Rotator
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	built     bool
	err       error
}

// New 创建 Builder，默认输出 stderr、text 格式、info 级别。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)
	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置输出目标。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if b.err != nil {
		return b
	}
	if w == nil {
		b.err = fmt.Errorf("xlog: output writer is nil")
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置初始级别；Build 之后仍可通过 LoggerWithLevel.SetLevel 调整。
func (b *Builder) SetLevel(level Level) *Builder {
	if b.err != nil {
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 以字符串设置初始级别（"debug"/"info"/"warn"/"error"）。
func (b *Builder) SetLevelString(s string) *Builder {
	if b.err != nil {
		return b
	}
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetFormat 设置输出格式："json" 或 "text"。
func (b *Builder) SetFormat(format string) *Builder {
	if b.err != nil {
		return b
	}
	switch format {
	case "json", "text":
		b.format = format
	default:
		b.err = fmt.Errorf("xlog: unknown format %q", format)
	}
	return b
}

// SetAddSource 设置是否输出源码位置。
func (b *Builder) SetAddSource(enable bool) *Builder {
	if b.err != nil {
		return b
	}
	b.addSource = enable
	return b
}

// SetRotation 把输出切换到按大小轮转的日志文件。重复调用会先关闭上一
// 个轮转器，避免文件句柄泄漏。
func (b *Builder) SetRotation(filename string, opts ...xrotate.Option) *Builder {
	if b.err != nil {
		return b
	}
	if b.rotator != nil {
		if closeErr := b.rotator.Close(); closeErr != nil {
			b.err = fmt.Errorf("xlog: close previous rotator: %w", closeErr)
			return b
		}
	}
	rotator, err := xrotate.NewLumberjack(filename, opts...)
	if err != nil {
		b.err = err
		return b
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// Build 返回日志实例与清理函数。Builder 只能 Build 一次：配置了轮转时，
// 重复 Build 出的实例会共享同一个轮转器，第一个 cleanup 会弄坏第二个。
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}
	if b.built {
		return nil, nil, fmt.Errorf("xlog: builder already built, create a new one via New()")
	}
	b.built = true

	handlerOpts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}
	var handler slog.Handler
	if b.format == "json" {
		handler = slog.NewJSONHandler(b.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(b.output, handlerOpts)
	}

	logger := &xlogger{
		handler:   handler,
		levelVar:  b.levelVar,
		addSource: b.addSource,
	}

	var once sync.Once
	rotator := b.rotator
	cleanup := func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
	return logger, cleanup, nil
}
