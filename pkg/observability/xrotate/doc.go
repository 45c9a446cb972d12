// Package xrotate 提供基于文件大小的日志轮转，是 xlog 的输出后端之一。
//
// 底层使用 lumberjack v2：按大小自动轮转、备份数量/天数清理、可选 gzip
// 压缩、并发安全写入。NewLumberjack 返回的 Rotator 同时实现 io.Writer
// 与 io.Closer；xlog.Builder.SetRotation 内部用它作为输出，它也可以交给
// 任何接受 io.Writer 的日志后端。
package xrotate
