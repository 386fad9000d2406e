package tui

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatMS 把毫秒格式化为带千分位的一位小数，例如 "1,234.5ms"。
func FormatMS(ms float64) string {
	return humanize.FormatFloat("#,###.#", ms) + "ms"
}

// FormatBytes 返回人类可读的字节数；0 返回 "-"。
func FormatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// Truncate 按 rune 截断并追加省略号。
func Truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// Bar 渲染一个宽度为 width 的文本进度条。
func Bar(done, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
