package measure

import (
	"context"
	"io"

	"github.com/John-Robertt/urlbench/internal/domain"
	"github.com/John-Robertt/urlbench/internal/infra/imgx"
)

// imageStrategy 对应浏览器里的 <img>：
// 下载完成 = 响应体读完且头部能识别为图片；渲染 = 完整解码 + 一个帧边界。
type imageStrategy struct{ m *Measurer }

func (imageStrategy) Name() string { return domain.StrategyImage }

func (s imageStrategy) Measure(ctx context.Context, j *Job) (Timing, error) {
	fail := func(stage string, err error) (Timing, error) {
		return Timing{}, &StageError{Strategy: s.Name(), Stage: stage, Err: err}
	}

	resp, err := s.m.get(ctx, j.RenderURL)
	if err != nil {
		return fail(StageFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(StageFetch, &HTTPStatusError{URL: j.RenderURL, StatusCode: resp.StatusCode})
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(StageFetch, err)
	}
	info, err := imgx.Probe(b)
	if err != nil {
		return fail(StageFetch, err)
	}
	downloadEnd := s.m.now()

	if err := imgx.Render(b, info); err != nil {
		return fail(StageRender, err)
	}
	if err := s.m.frame.Wait(ctx); err != nil {
		return fail(StageRender, err)
	}
	renderEnd := s.m.now()

	return Timing{
		DownloadStart: j.Start,
		DownloadEnd:   downloadEnd,
		RenderEnd:     renderEnd,
		StatusCode:    resp.StatusCode,
		Bytes:         int64(len(b)),
		TTFB:          resp.ttfb,
	}, nil
}
