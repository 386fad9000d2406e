package domain

import (
	"encoding/json"
	"time"
)

// FrameSize 是展示层的预览视口尺寸；核心测量不消费它，只随 report 输出。
type FrameSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BatchReport 是对外稳定输出（stdout JSON / --report）的结构。
//
// 约束：Items[i] 与输入第 i 行一一对应，长度相等；Finalize 不会重排。
type BatchReport struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Concurrency int       `json:"concurrency"`
	Frame       FrameSize `json:"frame"`

	Stats Stats     `json:"stats"`
	Items []Outcome `json:"items"`
}

// Stats 只统计成功条目（与页面上的统计卡片口径一致）。
type Stats struct {
	Total   int `json:"total"`
	Count   int `json:"count"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`

	SumDownloadMS float64 `json:"sum_download_ms"`
	SumRenderMS   float64 `json:"sum_render_ms"`
	SumTotalMS    float64 `json:"sum_total_ms"`

	AvgDownloadMS float64 `json:"avg_download_ms"`
	AvgRenderMS   float64 `json:"avg_render_ms"`
	AvgTotalMS    float64 `json:"avg_total_ms"`

	MaxDownloadMS float64 `json:"max_download_ms"`
	MaxRenderMS   float64 `json:"max_render_ms"`
	MaxTotalMS    float64 `json:"max_total_ms"`
}

// ComputeStats 从结果列表计算统计；没有成功条目时所有时长字段为 0。
func ComputeStats(items []Outcome) Stats {
	s := Stats{Total: len(items)}
	for _, it := range items {
		switch {
		case it.Success:
			s.Count++
			s.SumDownloadMS += it.DownloadMS
			s.SumRenderMS += it.RenderMS
			s.SumTotalMS += it.TotalMS
			if it.DownloadMS > s.MaxDownloadMS {
				s.MaxDownloadMS = it.DownloadMS
			}
			if it.RenderMS > s.MaxRenderMS {
				s.MaxRenderMS = it.RenderMS
			}
			if it.TotalMS > s.MaxTotalMS {
				s.MaxTotalMS = it.TotalMS
			}
		case it.IsPending():
			s.Pending++
		default:
			s.Failed++
		}
	}
	if s.Count > 0 {
		n := float64(s.Count)
		s.AvgDownloadMS = s.SumDownloadMS / n
		s.AvgRenderMS = s.SumRenderMS / n
		s.AvgTotalMS = s.SumTotalMS / n
	}
	return s
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) stats 由 items 计算得出
func (r *BatchReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.Items == nil {
		r.Items = []Outcome{}
	}
	r.Stats = ComputeStats(r.Items)
}

// AllSucceeded 用于 CLI 退出码：全部成功才算成功。
func (r BatchReport) AllSucceeded() bool {
	return r.Stats.Total > 0 && r.Stats.Count == r.Stats.Total
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
func (r BatchReport) MarshalJSON() ([]byte, error) {
	type Alias BatchReport
	return json.Marshal(Alias(r))
}
