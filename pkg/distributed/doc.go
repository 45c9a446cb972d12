// Package distributed 提供分布式协调相关的子包。
//
// 子包列表：
//   - xdlock: 分布式互斥锁，单节点原子协议与多节点 quorum 协议
//
// 设计原则：
//   - 提供统一的锁接口，支持单节点与 quorum 两种后端拓扑
//   - 支持锁续期（auto-extension）和优雅释放
//   - 内置健康检查
package distributed
