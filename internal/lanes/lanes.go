package lanes

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// MaxLimit 是并发 lane 数的硬上限。
const MaxLimit = 50

// Worker 处理单个条目。返回 error 或 panic 都会被 Options.OnFailure 转换成结果，不会中断其它 lane。
type Worker[T, R any] func(ctx context.Context, item T, index int) (R, error)

// Options 描述 Run 的可选回调。
//
// 约束：回调可能来自多个 goroutine 并发调用，实现必须并发安全。
type Options[T, R any] struct {
	// OnFailure 把 worker 的失败（error 或 *PanicError）转换为结构完整的结果。
	// 为 nil 时失败条目保留 R 的零值。
	OnFailure func(item T, index int, err error) R
	// OnDone 在每个条目结算后调用一次；done 从 1 严格递增到 total。
	// 调用被串行化（不会并发进入），顺序是完成顺序而不是输入顺序。
	OnDone func(done, total, index int, res R)
}

// PanicError 表示 worker 在执行过程中 panic。
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("worker panic: %v", e.Value)
}

// Clamp 把并发数收敛到 [1, min(MaxLimit, n)]；非正数视为 1。n<=0 时返回 0。
func Clamp(limit, n int) int {
	if n <= 0 {
		return 0
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if limit > n {
		limit = n
	}
	return limit
}

// Run 以固定数量的 lane 处理 items，并按输入顺序返回结果。
//
// 每个 lane 循环：原子领取下一个下标 -> 执行 worker -> 写入 results[idx] -> 上报进度。
// 下标由 atomic fetch-and-add 分配，因此每个条目恰好被一个 lane 处理一次；
// results 是定长切片，每个下标只由领取它的 lane 写入一次，不需要额外加锁。
//
// Run 在所有 lane 耗尽下标空间后才返回；不支持中途取消，ctx 只透传给 worker。
func Run[T, R any](ctx context.Context, items []T, limit int, worker Worker[T, R], opts Options[T, R]) []R {
	total := len(items)
	results := make([]R, total)
	lanes := Clamp(limit, total)
	if lanes == 0 {
		return results
	}

	var (
		next int64 = -1

		progressMu sync.Mutex
		done       int
	)

	var g errgroup.Group
	for i := 0; i < lanes; i++ {
		g.Go(func() error {
			for {
				idx := int(atomic.AddInt64(&next, 1))
				if idx >= total {
					return nil
				}

				res, err := call(ctx, worker, items[idx], idx)
				if err != nil {
					var zero R
					res = zero
					if opts.OnFailure != nil {
						res = opts.OnFailure(items[idx], idx, err)
					}
				}
				results[idx] = res

				// 计数与回调放在同一把锁里：观察者看到的 done 严格递增。
				progressMu.Lock()
				done++
				if opts.OnDone != nil {
					opts.OnDone(done, total, idx, res)
				}
				progressMu.Unlock()
			}
		})
	}
	// lane 本身从不返回错误：失败已在 lane 内转换为结果。
	_ = g.Wait()
	return results
}

func call[T, R any](ctx context.Context, worker Worker[T, R], item T, idx int) (res R, err error) {
	defer func() {
		if v := recover(); v != nil {
			var zero R
			res = zero
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return worker(ctx, item, idx)
}
