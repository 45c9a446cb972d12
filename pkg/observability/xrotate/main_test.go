package xrotate

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain 在所有测试结束后检测 goroutine 泄漏。lumberjack 的 millRun
// goroutine 由 sync.Once 启动且 Close() 不回收，是上游已知限制，这里
// 显式忽略。
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}
