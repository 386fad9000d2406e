package measure

import (
	"context"
	"io"

	"github.com/John-Robertt/urlbench/internal/domain"
)

// fetchRenderStrategy 是文档的首选路径：显式 GET 拿到完整 HTML，
// 包成离线文档后交给沙箱视口渲染。下载与渲染时间可以精确切分。
type fetchRenderStrategy struct{ m *Measurer }

func (fetchRenderStrategy) Name() string { return domain.StrategyFetchRender }

func (s fetchRenderStrategy) Measure(ctx context.Context, j *Job) (Timing, error) {
	fail := func(stage string, err error) (Timing, error) {
		return Timing{}, &StageError{Strategy: s.Name(), Stage: stage, Err: err}
	}

	fetchStart := s.m.now()
	resp, err := s.m.get(ctx, j.RenderURL)
	if err != nil {
		return fail(StageFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(StageFetch, &HTTPStatusError{URL: j.RenderURL, StatusCode: resp.StatusCode})
	}
	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(StageFetch, err)
	}
	downloadEnd := s.m.now()

	doc := newBlob(text)
	defer doc.Release()

	vp := j.Viewport()
	if err := vp.Load(doc.Reader()); err != nil {
		return fail(StageRender, err)
	}
	if err := s.m.frame.Wait(ctx); err != nil {
		return fail(StageRender, err)
	}
	renderEnd := s.m.now()

	return Timing{
		DownloadStart: fetchStart,
		DownloadEnd:   downloadEnd,
		RenderEnd:     renderEnd,
		StatusCode:    resp.StatusCode,
		Bytes:         int64(len(text)),
		TTFB:          resp.ttfb,
		Title:         vp.Title(),
	}, nil
}

// directLoadStrategy 是回退路径：把 render URL 直接“导航”进视口，
// 响应体边下载边解析，下载与解析无法区分。
//
// 与内嵌 frame 的语义一致：任何 HTTP 响应（包括非 2xx）都算加载完成，
// 只有传输或解析失败才算失败。下载时间从整次测量的起点算起。
type directLoadStrategy struct{ m *Measurer }

func (directLoadStrategy) Name() string { return domain.StrategyDirectLoad }

func (s directLoadStrategy) Measure(ctx context.Context, j *Job) (Timing, error) {
	fail := func(stage string, err error) (Timing, error) {
		return Timing{}, &StageError{Strategy: s.Name(), Stage: stage, Err: err}
	}

	resp, err := s.m.get(ctx, j.RenderURL)
	if err != nil {
		return fail(StageFetch, err)
	}
	defer resp.Body.Close()

	body := &countingReader{r: resp.Body}
	vp := j.Viewport()
	if err := vp.Load(body); err != nil {
		return fail(StageRender, err)
	}
	loadEnd := s.m.now()

	if err := s.m.frame.Wait(ctx); err != nil {
		return fail(StageRender, err)
	}
	renderEnd := s.m.now()

	return Timing{
		DownloadStart: j.Start,
		DownloadEnd:   loadEnd,
		RenderEnd:     renderEnd,
		StatusCode:    resp.StatusCode,
		Bytes:         body.n,
		TTFB:          resp.ttfb,
		Title:         vp.Title(),
	}, nil
}
