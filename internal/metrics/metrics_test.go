package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/domain"
)

func histogramSampleCount(o prom.Observer) uint64 {
	m := &dto.Metric{}
	if err := o.(prom.Metric).Write(m); err != nil {
		return 0
	}
	return m.GetHistogram().GetSampleCount()
}

func TestRecorder_ObservesOutcomes(t *testing.T) {
	r := NewRecorder()
	r.OnStart(bench.RunInfo{RunID: "run-1", Total: 3, Concurrency: 2})

	r.OnItemDone(1, 3, domain.Outcome{Category: domain.CategoryImage, Strategy: domain.StrategyImage, Success: true, DownloadMS: 120, RenderMS: 16, TotalMS: 136}, nil)
	r.OnItemDone(2, 3, domain.Outcome{Category: domain.CategoryDocument, Strategy: domain.StrategyDirectLoad, Success: true, DownloadMS: 300, RenderMS: 17, TotalMS: 317}, nil)
	r.OnItemDone(3, 3, domain.Failed(domain.WorkItem{URL: "x", Category: domain.CategoryDocument}, "", domain.ErrCodeDocumentLoadFailed, domain.MsgDocumentLoadFailed), nil)

	if got := testutil.ToFloat64(r.completedItems); got != 3 {
		t.Fatalf("completed_items = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.outcomesTotal.WithLabelValues("document", domain.ErrCodeDocumentLoadFailed)); got != 1 {
		t.Fatalf("失败计数 = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.outcomesTotal.WithLabelValues("image", "success")); got != 1 {
		t.Fatalf("成功计数 = %v, want 1", got)
	}
	if n := histogramSampleCount(r.totalSeconds.WithLabelValues("document", domain.StrategyDirectLoad)); n != 1 {
		t.Fatalf("total_seconds 样本数 = %d, want 1", n)
	}
	if got := testutil.ToFloat64(r.lastRunInfo.WithLabelValues("run-1", "2")); got != 1 {
		t.Fatalf("run_info = %v, want 1", got)
	}

	// 新批次开始时进度归零。
	r.OnStart(bench.RunInfo{RunID: "run-2", Total: 1, Concurrency: 1})
	if got := testutil.ToFloat64(r.completedItems); got != 0 {
		t.Fatalf("新批次 completed_items 应归零，实际 %v", got)
	}
	if n := testutil.CollectAndCount(r.lastRunInfo); n != 1 {
		t.Fatalf("run_info 只应保留最近一次批次，实际 %d 条", n)
	}
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(domain.Outcome{Category: domain.CategoryImage, Strategy: domain.StrategyImage, Success: true, DownloadMS: 5, RenderMS: 5, TotalMS: 10})

	path := filepath.Join(t.TempDir(), "nested", "urlbench.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取输出失败：%v", err)
	}
	for _, want := range []string{
		"urlbench_download_seconds_bucket",
		`urlbench_outcomes_total{category="image",result="success"} 1`,
		"urlbench_completed_items 0",
	} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("输出缺少 %q：\n%s", want, b)
		}
	}
}
