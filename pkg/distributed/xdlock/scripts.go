package xdlock

import (
	"context"
	_ "embed"
	"errors"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// scriptName 是脚本的稳定标识，用作每个 Store 实例 digest 缓存的 key，与服务端
// 分配的 SHA 摘要无关。
type scriptName string

const (
	scriptDeleteIfMatch scriptName = "delete_if_match"
	scriptExtendIfMatch scriptName = "extend_if_match"
	scriptAtomicExtend  scriptName = "atomic_extend"
	scriptInspect       scriptName = "inspect"
)

var (
	//go:embed lua/delete_if_match.lua
	deleteIfMatchSource string

	//go:embed lua/extend_if_match.lua
	extendIfMatchSource string

	//go:embed lua/atomic_extend.lua
	atomicExtendSource string

	//go:embed lua/inspect.lua
	inspectSource string
)

func scriptSource(name scriptName) string {
	switch name {
	case scriptDeleteIfMatch:
		return deleteIfMatchSource
	case scriptExtendIfMatch:
		return extendIfMatchSource
	case scriptAtomicExtend:
		return atomicExtendSource
	case scriptInspect:
		return inspectSource
	default:
		return ""
	}
}

// scriptCache 持有一个 Store 实例的脚本 digest 映射。每个 RedisStore 拥有自己
// 的 scriptCache，互不共享。
type scriptCache struct {
	mu      sync.Mutex
	digests map[scriptName]string
}

func newScriptCache() *scriptCache {
	return &scriptCache{digests: make(map[scriptName]string)}
}

// clear 在断开连接时清空缓存的 digest，迫使下次调用重新 SCRIPT LOAD。
func (c *scriptCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digests = make(map[scriptName]string)
}

// run 执行一个脚本：首次使用时 SCRIPT LOAD 并缓存 digest；后续调用走
// EVALSHA；命中 NOSCRIPT（服务端重启或执行了 SCRIPT FLUSH）时驱逐该条目并
// 重试一次，重试仍失败则把 NOSCRIPT 当作普通错误向上抛出。
func (c *scriptCache) run(ctx context.Context, client redis.UniversalClient, name scriptName, keys []string, args ...any) (any, error) {
	c.mu.Lock()
	digest, ok := c.digests[name]
	c.mu.Unlock()

	if ok {
		res, err := client.EvalSha(ctx, digest, keys, args...).Result()
		if err == nil || !isNoScript(err) {
			return res, err
		}
		c.evict(name)
	}

	newDigest, err := client.ScriptLoad(ctx, scriptSource(name)).Result()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.digests[name] = newDigest
	c.mu.Unlock()

	return client.EvalSha(ctx, newDigest, keys, args...).Result()
}

func (c *scriptCache) evict(name scriptName) {
	c.mu.Lock()
	delete(c.digests, name)
	c.mu.Unlock()
}

func isNoScript(err error) bool {
	if err == nil {
		return false
	}
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		return strings.HasPrefix(redisErr.Error(), "NOSCRIPT")
	}
	return strings.HasPrefix(err.Error(), "NOSCRIPT")
}
