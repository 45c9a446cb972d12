// Package xdlock 提供基于 Redis 的分布式互斥锁：单节点原子协议与多节点 quorum
// （Redlock）协议。
//
// # 设计理念
//
// xdlock 把"获取/续期/释放"的原子性完全下放到 Redis 端脚本执行，Go 侧只负责
// 编排（重试、超时、多节点并发 fan-out、续期调度），不做"先读后写"的组合操作——
// 这种组合操作在持有者的租约过期又被新持有者抢占的窗口里会产生误删的竞态。
//
//   - Store: narrow 的存储能力接口，协议代码只依赖这个接口，不依赖具体的 Redis
//     客户端类型；NewRedisStore 是目前唯一的实现。
//   - Lock: 单节点协议，针对一个 Store。
//   - QuorumLock: 多节点 quorum 协议，针对 N 个 Store，多数派提交。
//   - Supervisor: 自动续约调度器，包装 Lock 或 QuorumLock，在临界区运行
//     期间按计划续约，续约失败时通过 AbortSignal 通知调用方。
//
// # 脚本与 NOSCRIPT
//
// 四个脚本（delete_if_match、extend_if_match、atomic_extend、inspect）通过
// go:embed 嵌入，每个 Store 实例维护自己的 digest 缓存；命中 NOSCRIPT 时在内部
// 重新加载并透明重试一次，只有重试仍失败时才以 OperationError 返回给调用方。
//
// # 续期安全窗口
//
// atomic_extend 的 min_remaining_ttl_ms 参数是续约安全的核心：没有这个窗口，
// 一次侥幸险胜过期时刻的续约可能从新持有者手里偷走租约。调用方（通常是
// Supervisor）负责算出这个窗口，协议本身只负责把它原子地交给 Redis 校验。
//
// # 非重入
//
// 与 redsync 等库不同，这里的锁对象不维护"是否已持有"的本地状态：重复对同一个
// Lock/QuorumLock 调用 Acquire 会尝试重新获取，持有者必须自己避免对同一 key
// 重入。
package xdlock
