// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展
//   - xrotate: 日志文件轮转
//
// 设计原则：
//   - 支持动态级别控制
//   - 日志后端与核心协议解耦，核心只依赖一个窄接口
package observability
