package xrotate

import (
	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认配置值
const (
	DefaultMaxSizeMB  = 100
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
	DefaultCompress   = true
)

// Rotator 是日志轮转器：并发安全的 Write，Close 释放文件句柄，Rotate
// 立即切换到新文件。Close 之后不应再 Write。
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error
	Rotate() error
}

type config struct {
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

// Option 配置 NewLumberjack。
type Option func(*config)

// WithMaxSizeMB 设置单个日志文件最大大小（MB），超过即轮转。
func WithMaxSizeMB(mb int) Option {
	return func(c *config) { c.maxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份文件数量，0 表示不按数量清理。
func WithMaxBackups(n int) Option {
	return func(c *config) { c.maxBackups = n }
}

// WithMaxAgeDays 设置备份保留天数，0 表示不按天数清理。
func WithMaxAgeDays(days int) Option {
	return func(c *config) { c.maxAgeDays = days }
}

// WithCompress 设置是否 gzip 压缩备份文件。
func WithCompress(compress bool) Option {
	return func(c *config) { c.compress = compress }
}

// WithLocalTime 设置备份文件名使用本地时间而非 UTC。
func WithLocalTime(local bool) Option {
	return func(c *config) { c.localTime = local }
}

func (c *config) validate() error {
	if c.maxSizeMB < 1 || c.maxSizeMB > 10240 {
		return ErrInvalidMaxSize
	}
	if c.maxBackups < 0 || c.maxBackups > 1024 {
		return ErrInvalidMaxBackups
	}
	if c.maxAgeDays < 0 || c.maxAgeDays > 3650 {
		return ErrInvalidMaxAge
	}
	if c.maxBackups == 0 && c.maxAgeDays == 0 {
		return ErrNoCleanupPolicy
	}
	return nil
}

// NewLumberjack 创建按大小轮转的日志轮转器。filename 是当前日志文件的
// 路径；目录不存在时由 lumberjack 在首次写入时创建。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	cfg := config{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   DefaultCompress,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.maxSizeMB,
		MaxBackups: cfg.maxBackups,
		MaxAge:     cfg.maxAgeDays,
		Compress:   cfg.compress,
		LocalTime:  cfg.localTime,
	}, nil
}
