package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/config"
	"github.com/John-Robertt/urlbench/internal/domain"
)

func TestProgressUI_Lines(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, config.Defaults())

	p.OnStart(bench.RunInfo{RunID: "r1", Total: 2, Concurrency: 4, Lanes: 2, Frame: domain.FrameSize{Width: 800, Height: 600}})
	p.OnItemDone(1, 2, domain.Outcome{URL: "https://a.test/x.png", Category: domain.CategoryImage, Strategy: domain.StrategyImage, Success: true, DownloadMS: 12, RenderMS: 16.7, TotalMS: 28.7, Bytes: 2048}, nil)
	p.OnItemDone(2, 2, domain.Failed(domain.WorkItem{URL: "https://b.test/", Category: domain.CategoryDocument}, "", domain.ErrCodeDocumentLoadFailed, domain.MsgDocumentLoadFailed), nil)
	p.OnFinish(domain.BatchReport{Stats: domain.Stats{Count: 1, Failed: 1}})

	out := buf.String()
	for _, want := range []string{
		"urlbench run r1",
		"concurrency: 4 (lanes=2)",
		"frame: 800x600",
		"timeout: off",
		"proxy: off",
		"[1/2] OK image https://a.test/x.png 12.0ms/16.7ms/28.7ms 2.0 kB",
		"[2/2] FAIL document https://b.test/ document_load_failed: document load failed",
		"结束: ok=1 fail=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if p.tickerStarted {
		t.Fatalf("全部完成后 ticker 应已停止")
	}
}

func TestProgressUI_Keepalive(t *testing.T) {
	var (
		buf syncBuffer
	)
	p := newProgressUI(&buf, config.Defaults())
	p.tickerInterval = 5 * time.Millisecond
	p.keepaliveThreshold = time.Millisecond

	p.OnStart(bench.RunInfo{Total: 3, Lanes: 2})
	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "进度: done=0/3") {
		if time.Now().After(deadline) {
			t.Fatalf("未输出 keepalive 行：\n%s", buf.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	p.OnFinish(domain.BatchReport{})
}

func TestFormatProxy(t *testing.T) {
	cases := map[string]string{
		"":                              "off",
		"http://127.0.0.1:7890":         "on (http://127.0.0.1:7890, auth=off)",
		"http://u:p@proxy.test:3128":    "on (http://proxy.test:3128, auth=on)",
		"socks5://proxy.test:1080/path": "on (socks5://proxy.test:1080, auth=off)",
	}
	for in, want := range cases {
		if got := formatProxy(in); got != want {
			t.Fatalf("formatProxy(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("formatElapsed = %q", got)
	}
	if got := formatElapsed(-time.Second); got != "00:00:00" {
		t.Fatalf("负值应归零，实际 %q", got)
	}
}
