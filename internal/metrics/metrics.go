package metrics

import (
	"os"
	"path/filepath"
	"strconv"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/domain"
)

const namespace = "urlbench"

// Buckets 覆盖 1ms ~ 32s，够用来区分缓存命中、普通页面与挂起请求。
var Buckets = prom.ExponentialBuckets(0.001, 2, 16)

// Recorder 把批次结果写进 Prometheus collector；实现 bench.Observer。
//
// 只用私有 registry，不暴露 HTTP 端点：结果通过 WriteTextfile 落盘，
// 交给 node_exporter 的 textfile collector 采集。
type Recorder struct {
	reg *prom.Registry

	downloadSeconds *prom.HistogramVec
	renderSeconds   *prom.HistogramVec
	totalSeconds    *prom.HistogramVec
	outcomesTotal   *prom.CounterVec
	completedItems  prom.Gauge
	lastRunInfo     *prom.GaugeVec
}

var _ bench.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	labels := []string{"category", "strategy"}
	r := &Recorder{
		reg: prom.NewRegistry(),
		downloadSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "download_seconds",
			Help:      "Time from load start to download complete.",
			Buckets:   Buckets,
		}, labels),
		renderSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_seconds",
			Help:      "Time from download complete to the first painted frame.",
			Buckets:   Buckets,
		}, labels),
		totalSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "total_seconds",
			Help:      "Time from load start to the first painted frame.",
			Buckets:   Buckets,
		}, labels),
		outcomesTotal: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "outcomes_total",
			Help:      "Settled measurements by category and result.",
		}, []string{"category", "result"}),
		completedItems: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "completed_items",
			Help:      "Items settled in the current run.",
		}),
		lastRunInfo: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "run_info",
			Help:      "Labels of the last run; value is always 1.",
		}, []string{"run_id", "concurrency"}),
	}
	r.reg.MustRegister(r.downloadSeconds, r.renderSeconds, r.totalSeconds, r.outcomesTotal, r.completedItems, r.lastRunInfo)
	return r
}

// Registry 返回私有 registry（测试与自定义导出用）。
func (r *Recorder) Registry() *prom.Registry { return r.reg }

func (r *Recorder) OnStart(info bench.RunInfo) {
	r.completedItems.Set(0)
	r.lastRunInfo.Reset()
	r.lastRunInfo.WithLabelValues(info.RunID, strconv.Itoa(info.Concurrency)).Set(1)
}

func (r *Recorder) OnItemDone(done, _ int, o domain.Outcome, _ []domain.Outcome) {
	r.Observe(o)
	r.completedItems.Set(float64(done))
}

func (r *Recorder) OnFinish(domain.BatchReport) {}

// Observe 记录一条结算结果；失败只计数，不进时长直方图。
func (r *Recorder) Observe(o domain.Outcome) {
	category := string(o.Category)
	if !o.Success {
		result := o.ErrorCode
		if result == "" {
			result = "failed"
		}
		r.outcomesTotal.WithLabelValues(category, result).Inc()
		return
	}
	r.outcomesTotal.WithLabelValues(category, "success").Inc()
	r.downloadSeconds.WithLabelValues(category, o.Strategy).Observe(o.DownloadMS / 1000)
	r.renderSeconds.WithLabelValues(category, o.Strategy).Observe(o.RenderMS / 1000)
	r.totalSeconds.WithLabelValues(category, o.Strategy).Observe(o.TotalMS / 1000)
}

// WriteTextfile 以文本暴露格式原子写出全部指标。
func (r *Recorder) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return prom.WriteToTextfile(path, r.reg)
}
