package logx

import (
	"io"
	"log"
	"os"
	"sync/atomic"
)

// 调试日志统一写 stderr：stdout 在非 TTY 时只允许输出一个 report JSON。
var (
	debug  atomic.Bool
	logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

// SetDebug 开关调试日志。
func SetDebug(enabled bool) { debug.Store(enabled) }

// DebugEnabled 报告调试日志是否开启。
func DebugEnabled() bool { return debug.Load() }

// SetOutput 替换日志输出（测试用）。
func SetOutput(w io.Writer) { logger.SetOutput(w) }

// Debugf 只在调试模式下输出，component 形如 "measure"。
func Debugf(component, format string, args ...any) {
	if !debug.Load() {
		return
	}
	logger.Printf("[DEBUG] ["+component+"] "+format, args...)
}

// Warnf 总是输出。
func Warnf(component, format string, args ...any) {
	logger.Printf("[WARN] ["+component+"] "+format, args...)
}
