package measure

import (
	"context"
	"io"
	"net/http"
	"net/http/httptrace"
	"sync/atomic"
	"time"

	"github.com/John-Robertt/urlbench/internal/domain"
	"github.com/John-Robertt/urlbench/internal/infra/cachebust"
	"github.com/John-Robertt/urlbench/internal/infra/logx"
)

// Measurer 对单条 URL 执行一次“下载 + 渲染”计时。
//
// 约束：
// - Measure 从不返回 error：所有失败都编码为 Success=false 的 Outcome
// - 不重试、不缓存；每次测量都使用新的 cache-buster 参数
// - 并发安全：多个 lane 共享同一个 Measurer
type Measurer struct {
	client *http.Client
	frame  Frame
	now    func() time.Time
	bust   func(string) string

	documentChain []Strategy
	imageChain    []Strategy
}

type Option func(*Measurer)

// WithFrame 替换帧同步点（默认 60Hz 帧网格）。
func WithFrame(f Frame) Option {
	return func(m *Measurer) {
		if f != nil {
			m.frame = f
		}
	}
}

// WithClock 替换时钟（测试用）。
func WithClock(now func() time.Time) Option {
	return func(m *Measurer) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCacheBuster 替换 render URL 的生成函数（测试用）。
func WithCacheBuster(f func(string) string) Option {
	return func(m *Measurer) {
		if f != nil {
			m.bust = f
		}
	}
}

// New 构造 Measurer。client 为 nil 时使用 http.DefaultClient。
func New(client *http.Client, opts ...Option) *Measurer {
	if client == nil {
		client = http.DefaultClient
	}
	m := &Measurer{
		client: client,
		frame:  NewFrameClock(DefaultFrameInterval),
		now:    time.Now,
		bust:   cachebust.Apply,
	}
	for _, o := range opts {
		o(m)
	}
	m.imageChain = []Strategy{imageStrategy{m: m}}
	m.documentChain = []Strategy{fetchRenderStrategy{m: m}, directLoadStrategy{m: m}}
	return m
}

// Job 是一次测量的共享上下文：策略链中的每条策略看到同一个 render URL、起点与视口。
type Job struct {
	URL       string
	RenderURL string
	Category  domain.Category
	Start     time.Time

	viewport *Viewport
}

// Viewport 返回本次测量唯一的离屏视口（惰性创建）。
func (j *Job) Viewport() *Viewport {
	if j.viewport == nil {
		j.viewport = newViewport(j.URL)
	}
	return j.viewport
}

func (j *Job) release() {
	if j.viewport != nil {
		j.viewport.Close()
	}
}

// MeasureItem 是给调度器用的 worker 形态。
func (m *Measurer) MeasureItem(ctx context.Context, it domain.WorkItem, _ int) (domain.Outcome, error) {
	return m.Measure(ctx, it.URL, it.Category), nil
}

// Measure 测量一条 URL；category 决定走图片路径还是文档策略链。
func (m *Measurer) Measure(ctx context.Context, rawURL string, category domain.Category) domain.Outcome {
	item := domain.WorkItem{URL: rawURL, Category: category}
	j := &Job{
		URL:       rawURL,
		RenderURL: m.bust(rawURL),
		Category:  category,
	}
	// 视口在结算后（无论成功失败）释放且只释放一次。
	defer j.release()

	chain, code, msg := m.documentChain, domain.ErrCodeDocumentLoadFailed, domain.MsgDocumentLoadFailed
	if category == domain.CategoryImage {
		chain, code, msg = m.imageChain, domain.ErrCodeImageLoadFailed, domain.MsgImageLoadFailed
	}

	j.Start = m.now()
	t, used, attempts, err := runChain(ctx, chain, j)
	if err != nil {
		logx.Debugf("measure", "%s failed: attempts=%s", rawURL, formatAttempts(attempts))
		return domain.Failed(item, j.RenderURL, code, msg)
	}
	if len(attempts) > 1 {
		logx.Debugf("measure", "%s fallback: attempts=%s", rawURL, formatAttempts(attempts))
	}
	if j.viewport != nil {
		logx.Debugf("measure", "%s layout: strategy=%s text=%d bytes", rawURL, used, len(j.viewport.Text()))
	}

	return domain.Outcome{
		URL:         rawURL,
		RenderedURL: j.RenderURL,
		Category:    category,
		Strategy:    used,
		DownloadMS:  millis(t.DownloadEnd.Sub(t.DownloadStart)),
		RenderMS:    millis(t.RenderEnd.Sub(t.DownloadEnd)),
		TotalMS:     millis(t.RenderEnd.Sub(j.Start)),
		Success:     true,
		StatusCode:  t.StatusCode,
		Bytes:       t.Bytes,
		TTFBMS:      millis(t.TTFB),
		Title:       t.Title,
	}
}

func millis(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}

// response 是带首字节时间的 GET 结果。
type response struct {
	*http.Response
	ttfb time.Duration
}

// get 发起一次 GET，并通过 httptrace 记录首字节到达时间。
func (m *Measurer) get(ctx context.Context, u string) (*response, error) {
	var firstByte atomic.Int64
	start := m.now()
	trace := &httptrace.ClientTrace{
		GotFirstResponseByte: func() {
			firstByte.Store(int64(m.now().Sub(start)))
		},
	}
	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	return &response{Response: resp, ttfb: time.Duration(firstByte.Load())}, nil
}

// countingReader 统计经过的字节数（直接加载路径没有完整 body 可以取长度）。
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
