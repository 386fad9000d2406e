package measure

import (
	"context"
	"time"
)

// DefaultFrameInterval 对应 60Hz 刷新率。
const DefaultFrameInterval = time.Second / 60

// Frame 是“渲染帧边界”的同步点：Wait 返回即视为内容已被绘制。
//
// 命令行环境没有真正的绘制回调，因此 render 时间是近似值：
// 它等于解码/布局耗时 + 到下一帧边界的等待。
type Frame interface {
	Wait(ctx context.Context) error
}

// FrameFunc 让普通函数满足 Frame（测试里常用立即返回的实现）。
type FrameFunc func(ctx context.Context) error

func (f FrameFunc) Wait(ctx context.Context) error { return f(ctx) }

// FrameClock 把时间切成固定间隔的帧网格，Wait 等到下一条网格线。
type FrameClock struct {
	interval time.Duration
	epoch    time.Time
}

func NewFrameClock(interval time.Duration) *FrameClock {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameClock{interval: interval, epoch: time.Now()}
}

func (c *FrameClock) Wait(ctx context.Context) error {
	d := c.untilNext(time.Now())
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// untilNext 返回从 now 到下一条帧边界的时长，范围 (0, interval]。
func (c *FrameClock) untilNext(now time.Time) time.Duration {
	elapsed := now.Sub(c.epoch)
	if elapsed < 0 {
		return c.interval
	}
	return c.interval - elapsed%c.interval
}
