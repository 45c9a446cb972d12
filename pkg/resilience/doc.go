// Package resilience 提供弹性相关的子包。
//
// 子包列表：
//   - xretry: 重试原语，退避策略计算与带上下文的重试执行
package resilience
