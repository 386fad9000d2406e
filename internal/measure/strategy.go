package measure

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StageFetch  = "fetch"
	StageRender = "render"
	StageOK     = "ok"
)

// Strategy 是一条“加载 + 渲染”路径。
//
// 约束：
// - Measure 自己记录时间点，不做重试
// - 失败必须返回 *StageError，上层据此决定是否回退到下一条策略
type Strategy interface {
	Name() string
	Measure(ctx context.Context, j *Job) (Timing, error)
}

// Timing 是一次成功测量的时间点与附加信息；所有策略以同一形态输出。
type Timing struct {
	DownloadStart time.Time
	DownloadEnd   time.Time
	RenderEnd     time.Time

	StatusCode int
	Bytes      int64
	TTFB       time.Duration
	Title      string
}

// Attempt 记录一次策略尝试（用于解释回退原因，只进调试日志）。
type Attempt struct {
	Strategy string
	Stage    string
	Err      error
}

func (a Attempt) String() string {
	if a.Err == nil {
		return a.Strategy + ":" + a.Stage
	}
	return a.Strategy + ":" + a.Stage + ":" + a.Err.Error()
}

// StageError 是策略阶段的可追溯错误。
type StageError struct {
	Strategy string
	Stage    string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("strategy=%s stage=%s: %v", e.Strategy, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// HTTPStatusError 表示服务端返回了非 2xx 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// runChain 按顺序尝试策略，第一个成功者胜出。
//
// 只有 fetch 阶段的失败会回退到下一条策略；render 阶段失败是终态
// （内容已经拿到却渲染不了，换一种加载方式也无济于事）。
func runChain(ctx context.Context, chain []Strategy, j *Job) (Timing, string, []Attempt, error) {
	var (
		attempts []Attempt
		lastErr  error
	)
	for _, s := range chain {
		t, err := s.Measure(ctx, j)
		if err == nil {
			attempts = append(attempts, Attempt{Strategy: s.Name(), Stage: StageOK})
			return t, s.Name(), attempts, nil
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = &StageError{Strategy: s.Name(), Stage: StageFetch, Err: err}
		}
		attempts = append(attempts, Attempt{Strategy: se.Strategy, Stage: se.Stage, Err: se.Err})
		lastErr = se
		if se.Stage != StageFetch {
			break
		}
	}
	if lastErr == nil {
		lastErr = errors.New("无可用策略")
	}
	return Timing{}, "", attempts, lastErr
}

func formatAttempts(attempts []Attempt) string {
	parts := make([]string, 0, len(attempts))
	for _, a := range attempts {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ";")
}
