// Package xretry 提供重试原语：退避策略计算与带上下文的重试执行。
//
// 两层 API：
//
//   - Backoff：纯粹的延迟计算器（固定、指数带抖动），调用方自己控制
//     循环与睡眠。适合需要精确掌控每次尝试（计数、日志、提前退出）的
//     协议代码。
//   - Do / DoWithData：基于 avast/retry-go 的重试执行器，把循环、延迟
//     与上下文取消都交给库处理。适合"调用到成功为止"的一次性操作。
package xretry
