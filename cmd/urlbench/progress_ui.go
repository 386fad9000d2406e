package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/config"
	"github.com/John-Robertt/urlbench/internal/domain"
	"github.com/John-Robertt/urlbench/internal/tui"
)

var _ bench.Observer = (*progressUI)(nil)

// progressUI 是逐行输出的交互终端进度。
//
// 约束：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：bench 层只发事件，CLI 决定如何展示
// - keepalive：长时间无条目完成时也会定期输出一行
type progressUI struct {
	w   io.Writer
	cfg config.EffectiveConfig

	okStyle   lipgloss.Style
	failStyle lipgloss.Style
	dimStyle  lipgloss.Style

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	lanes int
	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, cfg config.EffectiveConfig) *progressUI {
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:                  w,
		cfg:                cfg,
		okStyle:            r.NewStyle().Foreground(lipgloss.Color("42")),
		failStyle:          r.NewStyle().Foreground(lipgloss.Color("196")),
		dimStyle:           r.NewStyle().Foreground(lipgloss.Color("244")),
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(info bench.RunInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.startedAt = now
	p.lanes = info.Lanes
	p.total = info.Total

	fmt.Fprintf(p.w, "[%s] urlbench run %s\n", now.Format("15:04:05"), info.RunID)
	fmt.Fprintln(p.w, "配置（生效）:")
	if p.cfg.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", p.cfg.ConfigPath)
	}
	fmt.Fprintf(p.w, "  urls: %d\n", info.Total)
	fmt.Fprintf(p.w, "  concurrency: %d (lanes=%d)\n", info.Concurrency, info.Lanes)
	fmt.Fprintf(p.w, "  frame: %dx%d\n", info.Frame.Width, info.Frame.Height)
	fmt.Fprintf(p.w, "  timeout: %s\n", formatTimeout(p.cfg.Timeout))
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(p.cfg.ProxyURL))
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnItemDone(done, total int, res domain.Outcome, _ []domain.Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	if res.Success {
		p.ok++
	} else {
		p.fail++
	}

	fmt.Fprintln(p.w, p.formatItemLine(done, total, res))
	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) OnFinish(rep domain.BatchReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
	elapsed := rep.FinishedAt.Sub(rep.StartedAt)
	fmt.Fprintf(p.w, "\n结束: ok=%d fail=%d elapsed=%s\n", rep.Stats.Count, rep.Stats.Failed, formatElapsed(elapsed))
}

func (p *progressUI) formatItemLine(done, total int, res domain.Outcome) string {
	if !res.Success {
		return fmt.Sprintf("[%d/%d] %s %s %s %s: %s",
			done, total, p.failStyle.Render("FAIL"), res.Category, truncate(res.URL, 120), res.ErrorCode, res.ErrorMsg)
	}
	extra := ""
	if res.Strategy == domain.StrategyDirectLoad {
		extra = " " + p.dimStyle.Render("(direct-load)")
	}
	return fmt.Sprintf("[%d/%d] %s %s %s %s/%s/%s %s%s",
		done, total, p.okStyle.Render("OK"), res.Category, truncate(res.URL, 120),
		tui.FormatMS(res.DownloadMS), tui.FormatMS(res.RenderMS), tui.FormatMS(res.TotalMS),
		p.dimStyle.Render(tui.FormatBytes(res.Bytes)), extra,
	)
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true
	stop := p.stopCh

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if p.total > 0 && time.Since(p.lastPrinted) > threshold {
					active := p.lanes
					if remain := p.total - p.done; remain < active {
						active = remain
					}
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d active=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, active, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	return tui.Truncate(s, max)
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
