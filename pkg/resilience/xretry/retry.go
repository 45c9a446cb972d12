package xretry

import (
	"context"

	retry "github.com/avast/retry-go/v5"
)

// Option 透传 avast/retry-go 的配置选项，调用方无需直接导入 retry-go。
type Option = retry.Option

// 常用的 retry-go 选项
var (
	// Attempts 设置总尝试次数，0 表示无限重试。
	Attempts = retry.Attempts

	// Delay 设置基准重试间隔。
	Delay = retry.Delay

	// MaxDelay 设置重试间隔上限。
	MaxDelay = retry.MaxDelay

	// MaxJitter 设置最大随机抖动。
	MaxJitter = retry.MaxJitter

	// OnRetry 设置每次重试前的回调。
	OnRetry = retry.OnRetry

	// RetryIf 设置自定义重试条件。
	RetryIf = retry.RetryIf

	// LastErrorOnly 只返回最后一个错误而非错误列表。
	LastErrorOnly = retry.LastErrorOnly
)

// Do 执行 operation 直到成功、重试预算耗尽或 ctx 取消。
func Do(ctx context.Context, operation func() error, opts ...Option) error {
	return retry.New(append([]Option{retry.Context(ctx)}, opts...)...).Do(operation)
}

// DoWithData 同 Do，但透传 operation 的返回值。
func DoWithData[T any](ctx context.Context, operation func() (T, error), opts ...Option) (T, error) {
	return retry.NewWithData[T](append([]Option{retry.Context(ctx)}, opts...)...).Do(operation)
}

// Unrecoverable 把 err 标记为不可重试：Do 遇到后立即放弃剩余尝试。
func Unrecoverable(err error) error {
	return retry.Unrecoverable(err)
}
