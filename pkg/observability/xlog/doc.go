// Package xlog 提供基于 log/slog 的结构化日志封装。
//
// # 设计理念
//
// 业务代码依赖 Logger 接口而非具体实现，保持可替换、可测试；Builder
// 负责一次性组装输出目标（含 xrotate 轮转）、格式与级别；Build 返回的
// LoggerWithLevel 支持运行期动态调级。包级 Default/Debug/Info/Warn/Error
// 提供全局便捷入口，适合 main 与小工具；库代码应显式注入 Logger。
//
// # 典型用法
//
//	logger, cleanup, err := xlog.New().
//		SetLevelString("debug").
//		SetFormat("json").
//		SetRotation("/var/log/app.log", xrotate.WithMaxSizeMB(64)).
//		Build()
//	if err != nil { ... }
//	defer cleanup()
//	logger.Info(ctx, "service started", xlog.Component("locker"))
package xlog
