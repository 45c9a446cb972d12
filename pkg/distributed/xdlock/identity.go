package xdlock

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// leaseValueBytes 是租约值的随机字节数；十六进制编码后得到 32 个字符。
const leaseValueBytes = 16

// handleIDRandBytes 产出 handleID 里 12 个十六进制字符所需的随机字节数。
const handleIDRandBytes = 6

// maxCompareLength 是 safeCompare 接受的最大输入长度，超过此长度视为不相等，
// 防止把明显超长（不可能是合法租约值）的输入喂进比较函数。
const maxCompareLength = 512

// newLeaseValue 生成一个 16 字节密码学随机值，十六进制编码后返回。
//
// 不可预测性是这里的唯一要求：持有者写入存储的租约值必须让攻击者或过期后
// 仍以为自己持有锁的旧持有者都无法伪造，因此使用 crypto/rand 而非 math/rand。
func newLeaseValue() (string, error) {
	buf := make([]byte, leaseValueBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("xdlock: generate lease value: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// newHandleID 生成 "<毫秒时间戳>-<12 位十六进制>" 形式的本地标识符，仅用于
// 客户端侧的追踪（日志关联、调用方自己的采集器），不参与所有权校验。
func newHandleID(now time.Time) (string, error) {
	buf := make([]byte, handleIDRandBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("xdlock: generate handle id: %w", err)
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(buf)), nil
}

// safeCompare 对两个字节序列做定长时间的相等性比较。长度不等或任一输入
// 超过 maxCompareLength 都直接判定为不相等，不走 subtle.ConstantTimeCompare
// （避免把长度信息泄漏到时序里，也避免对失控的超长输入做无意义的比较）。
func safeCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) > maxCompareLength {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
