package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/urlbench/internal/config"
	"github.com/John-Robertt/urlbench/internal/domain"
	"github.com/John-Robertt/urlbench/internal/infra/httpx"
	"github.com/John-Robertt/urlbench/internal/infra/logx"
	"github.com/John-Robertt/urlbench/internal/lanes"
	"github.com/John-Robertt/urlbench/internal/measure"
	"github.com/John-Robertt/urlbench/internal/source"
)

var (
	// ErrRunInProgress 表示同一个 Session 上已有批次在运行。
	ErrRunInProgress = errors.New(domain.ErrCodeRunInProgress + "：已有批次在运行，请等待其结束")
	// ErrNoURLs 表示输入中没有任何非空 URL。
	ErrNoURLs = errors.New(domain.ErrCodeInputEmpty + "：没有可测量的 URL")
)

// Worker 是单条 URL 的测量函数；*measure.Measurer 的 MeasureItem 满足它。
type Worker = lanes.Worker[domain.WorkItem, domain.Outcome]

// WorkerFactory 根据最终配置构造 worker（每个批次一次）。
type WorkerFactory func(cfg config.EffectiveConfig) (Worker, error)

// Session 拥有至多一个正在运行的批次。
//
// 同一 Session 上重叠调用 Execute 会直接返回 ErrRunInProgress：
// 占位结果与进度计数都属于单个批次，不允许两个批次交错写入。
type Session struct {
	newWorker WorkerFactory
	now       func() time.Time

	running atomic.Bool
}

type SessionOption func(*Session)

// WithWorkerFactory 替换默认的 HTTP 测量实现（测试常用）。
func WithWorkerFactory(f WorkerFactory) SessionOption {
	return func(s *Session) {
		if f != nil {
			s.newWorker = f
		}
	}
}

func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		newWorker: DefaultWorker,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DefaultWorker 用真实 HTTP client + 帧时钟构造测量 worker。
func DefaultWorker(cfg config.EffectiveConfig) (Worker, error) {
	client, err := httpx.NewMeasureClient(httpx.Options{
		ProxyURL:  cfg.ProxyURL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	})
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Path: cfg.ConfigPath, Err: fmt.Errorf("proxy.url 无效：%w", err)}
	}
	return measure.New(client).MeasureItem, nil
}

// Running 报告当前是否有批次在运行。
func (s *Session) Running() bool { return s.running.Load() }

// Execute 测量一批 URL，返回与输入一一对应的 BatchReport。
//
// 单条 URL 的失败只体现在对应的 Outcome 里；只有以下情况返回 error：
// 已有批次在运行、输入为空、worker 构造失败（配置无效）。
func (s *Session) Execute(ctx context.Context, cfg config.EffectiveConfig, urls []string, obs Observer) (domain.BatchReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.BatchReport{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	items := source.BuildItems(source.Normalize(urls))
	if len(items) == 0 {
		return domain.BatchReport{}, ErrNoURLs
	}

	worker, err := s.newWorker(cfg)
	if err != nil {
		return domain.BatchReport{}, err
	}

	rep := domain.BatchReport{
		RunID:       uuid.NewString(),
		StartedAt:   s.now().UTC(),
		Concurrency: cfg.Concurrency,
		Frame:       cfg.Frame,
	}

	// 占位结果：每条 URL 先是 pending，结算时被整体替换一次。
	snapshot := make([]domain.Outcome, len(items))
	for i, it := range items {
		snapshot[i] = domain.Pending(it)
	}

	if obs != nil {
		obs.OnStart(RunInfo{
			RunID:        rep.RunID,
			StartedAt:    rep.StartedAt,
			Total:        len(items),
			Concurrency:  cfg.Concurrency,
			Lanes:        lanes.Clamp(cfg.Concurrency, len(items)),
			Frame:        cfg.Frame,
			Placeholders: cloneOutcomes(snapshot),
		})
	}
	logx.Debugf("bench", "run=%s start total=%d concurrency=%d", rep.RunID, len(items), cfg.Concurrency)

	var mu sync.Mutex
	results := lanes.Run(ctx, items, cfg.Concurrency, worker, lanes.Options[domain.WorkItem, domain.Outcome]{
		OnFailure: workerFailed,
		OnDone: func(done, total, index int, res domain.Outcome) {
			mu.Lock()
			snapshot[index] = res
			cp := cloneOutcomes(snapshot)
			mu.Unlock()
			if obs != nil {
				obs.OnItemDone(done, total, res, cp)
			}
		},
	})

	rep.Items = results
	rep.FinishedAt = s.now().UTC()
	rep.Finalize()
	logx.Debugf("bench", "run=%s finish ok=%d failed=%d", rep.RunID, rep.Stats.Count, rep.Stats.Failed)

	if obs != nil {
		obs.OnFinish(rep)
	}
	return rep, nil
}

// workerFailed 把 worker 的 error/panic 转换为结构完整的失败结果。
func workerFailed(it domain.WorkItem, index int, err error) domain.Outcome {
	var pe *lanes.PanicError
	if errors.As(err, &pe) {
		logx.Warnf("bench", "item=%d url=%s worker panic: %v\n%s", index, it.URL, pe.Value, pe.Stack)
	} else {
		logx.Warnf("bench", "item=%d url=%s worker error: %v", index, it.URL, err)
	}
	return domain.Failed(it, "", domain.ErrCodeWorkerFailed, err.Error())
}

func cloneOutcomes(in []domain.Outcome) []domain.Outcome {
	out := make([]domain.Outcome, len(in))
	copy(out, in)
	return out
}
