package measure

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubStrategy struct {
	name  string
	stage string
	err   error
	calls *int
}

func (s stubStrategy) Name() string { return s.name }

func (s stubStrategy) Measure(context.Context, *Job) (Timing, error) {
	*s.calls++
	if s.err != nil {
		return Timing{}, &StageError{Strategy: s.name, Stage: s.stage, Err: s.err}
	}
	return Timing{RenderEnd: time.Unix(1, 0)}, nil
}

func TestRunChain_FallbackOnlyOnFetch(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name       string
		firstStage string
		wantUsed   string
		wantErr    bool
		wantCalls  int
	}{
		{name: "fetch 失败回退", firstStage: StageFetch, wantUsed: "b", wantCalls: 1},
		{name: "render 失败终止", firstStage: StageRender, wantErr: true, wantCalls: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var aCalls, bCalls int
			chain := []Strategy{
				stubStrategy{name: "a", stage: tc.firstStage, err: boom, calls: &aCalls},
				stubStrategy{name: "b", calls: &bCalls},
			}
			_, used, attempts, err := runChain(context.Background(), chain, &Job{})
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if used != tc.wantUsed {
				t.Fatalf("used=%q want %q", used, tc.wantUsed)
			}
			if bCalls != tc.wantCalls {
				t.Fatalf("第二条策略调用次数=%d want %d", bCalls, tc.wantCalls)
			}
			if len(attempts) == 0 || attempts[0].Stage != tc.firstStage {
				t.Fatalf("attempts 不符合预期：%v", attempts)
			}
			if tc.wantErr && !errors.Is(err, boom) {
				t.Fatalf("错误链应保留原因：%v", err)
			}
		})
	}
}

func TestRunChain_AllFail(t *testing.T) {
	var calls int
	chain := []Strategy{
		stubStrategy{name: "a", stage: StageFetch, err: errors.New("x"), calls: &calls},
		stubStrategy{name: "b", stage: StageFetch, err: errors.New("y"), calls: &calls},
	}
	_, _, attempts, err := runChain(context.Background(), chain, &Job{})
	if err == nil {
		t.Fatalf("期望错误")
	}
	if calls != 2 || len(attempts) != 2 {
		t.Fatalf("两条策略都应被尝试：calls=%d attempts=%v", calls, attempts)
	}
	if got := formatAttempts(attempts); got != "a:fetch:x;b:fetch:y" {
		t.Fatalf("formatAttempts=%q", got)
	}
}

func TestFrameClock_UntilNext(t *testing.T) {
	c := NewFrameClock(10 * time.Millisecond)
	cases := []struct {
		offset time.Duration
		want   time.Duration
	}{
		{0, 10 * time.Millisecond},
		{3 * time.Millisecond, 7 * time.Millisecond},
		{10 * time.Millisecond, 10 * time.Millisecond},
		{25 * time.Millisecond, 5 * time.Millisecond},
		{-time.Millisecond, 10 * time.Millisecond},
	}
	for _, tc := range cases {
		if got := c.untilNext(c.epoch.Add(tc.offset)); got != tc.want {
			t.Fatalf("offset=%v: got %v want %v", tc.offset, got, tc.want)
		}
	}
}

func TestFrameClock_WaitCanceled(t *testing.T) {
	c := NewFrameClock(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际 %v", err)
	}
}
