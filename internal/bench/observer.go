package bench

import (
	"time"

	"github.com/John-Robertt/urlbench/internal/domain"
)

// RunInfo 是批次开始时的静态信息。
type RunInfo struct {
	RunID       string
	StartedAt   time.Time
	Total       int
	Concurrency int
	// Lanes 是实际启动的 lane 数（= min(Concurrency, Total)）。
	Lanes int
	Frame domain.FrameSize
	// Placeholders 是预置的占位结果，下标与输入行一一对应。
	Placeholders []domain.Outcome
}

// Observer 把“批次进度/条目结果”从执行流程中解耦出来。
//
// 约束：
// - bench 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - 实现必须并发安全；OnItemDone 虽然被串行化调用，但可能来自不同 goroutine。
type Observer interface {
	OnStart(info RunInfo)
	// OnItemDone 在某条 URL 结算后调用；done 从 1 严格递增到 total。
	// snapshot 是此刻全部结果的副本（未完成的仍是占位结果），观察者可以自由持有。
	OnItemDone(done, total int, o domain.Outcome, snapshot []domain.Outcome)
	OnFinish(rep domain.BatchReport)
}

type multiObserver []Observer

// Observers 把多个观察者合并为一个；nil 会被忽略。没有有效观察者时返回 nil。
func Observers(obs ...Observer) Observer {
	out := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	default:
		return out
	}
}

func (m multiObserver) OnStart(info RunInfo) {
	for _, o := range m {
		o.OnStart(info)
	}
}

func (m multiObserver) OnItemDone(done, total int, res domain.Outcome, snapshot []domain.Outcome) {
	for _, o := range m {
		o.OnItemDone(done, total, res, snapshot)
	}
}

func (m multiObserver) OnFinish(rep domain.BatchReport) {
	for _, o := range m {
		o.OnFinish(rep)
	}
}
