package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/John-Robertt/urlbench/internal/domain"
	"github.com/John-Robertt/urlbench/internal/tui"
)

// emitReport 遵守 stdout 契约：
// - stdout 是终端（且未指定 --json）：输出人类可读的结果与统计
// - 否则：stdout 只输出一个 BatchReport JSON，摘要走 stderr
func emitReport(env *cliEnv, rep domain.BatchReport, forceJSON bool) {
	if isTTY(env.stdout) && !forceJSON {
		writeSummary(env.stdout, rep)
		for _, it := range rep.Items {
			if it.Success {
				continue
			}
			fmt.Fprintf(env.stderr, "%s %s: %s\n", it.URL, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(env.stdout)
	_ = enc.Encode(rep)
	fmt.Fprintln(env.stderr, summaryLine(rep))
}

func summaryLine(rep domain.BatchReport) string {
	s := rep.Stats
	return fmt.Sprintf("完成：total=%d ok=%d failed=%d avg_total=%s max_total=%s",
		s.Total, s.Count, s.Failed, tui.FormatMS(s.AvgTotalMS), tui.FormatMS(s.MaxTotalMS))
}

func writeSummary(w io.Writer, rep domain.BatchReport) {
	fmt.Fprintln(w)
	for i, it := range rep.Items {
		if !it.Success {
			fmt.Fprintf(w, "%3d  FAIL  %-8s %s  %s\n", i+1, it.Category, tui.Truncate(it.URL, 80), it.ErrorMsg)
			continue
		}
		fmt.Fprintf(w, "%3d  OK    %-8s %s  %s / %s / %s\n", i+1, it.Category, tui.Truncate(it.URL, 80),
			tui.FormatMS(it.DownloadMS), tui.FormatMS(it.RenderMS), tui.FormatMS(it.TotalMS))
	}

	s := rep.Stats
	fmt.Fprintln(w)
	fmt.Fprintln(w, summaryLine(rep))
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "  平均：download %s  render %s  total %s\n",
		tui.FormatMS(s.AvgDownloadMS), tui.FormatMS(s.AvgRenderMS), tui.FormatMS(s.AvgTotalMS))
	fmt.Fprintf(w, "  最大：download %s  render %s  total %s\n",
		tui.FormatMS(s.MaxDownloadMS), tui.FormatMS(s.MaxRenderMS), tui.FormatMS(s.MaxTotalMS))
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter(env *cliEnv) (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(env.stderr) {
		return env.stderr, true
	}
	// 仅重定向 stderr 时 stdout 仍是终端：退化输出到 stdout。
	if isTTY(env.stdout) {
		return env.stdout, true
	}
	return nil, false
}

func emitLocations(w io.Writer, f runFlags) {
	if w == nil {
		return
	}
	if f.reportPath != "" {
		fmt.Fprintf(w, "report: %s\n", f.reportPath)
	}
	if f.metricsPath != "" {
		fmt.Fprintf(w, "metrics: %s\n", f.metricsPath)
	}
}
