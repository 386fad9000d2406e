package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewMeasureClient_Defaults(t *testing.T) {
	c, err := NewMeasureClient(Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if c.Timeout != 0 {
		t.Fatalf("默认不应设置总超时，实际 %v", c.Timeout)
	}
	tr, ok := c.Transport.(*Transport)
	if !ok {
		t.Fatalf("期望 *Transport，实际 %T", c.Transport)
	}
	if tr.Base.Proxy != nil {
		t.Fatalf("不期望启用代理，但 Proxy!=nil")
	}
	if !tr.NoStore {
		t.Fatalf("测量 client 必须携带 no-store")
	}
}

func TestNewMeasureClient_ProxyAndTimeout(t *testing.T) {
	c, err := NewMeasureClient(Options{ProxyURL: "http://127.0.0.1:8080", Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if c.Timeout != 3*time.Second {
		t.Fatalf("期望 Timeout=3s，实际 %v", c.Timeout)
	}
	if c.Transport.(*Transport).Base.Proxy == nil {
		t.Fatalf("期望启用代理")
	}
}

func TestNewMeasureClient_InvalidProxyURL(t *testing.T) {
	if _, err := NewMeasureClient(Options{ProxyURL: "http://[::1"}); err == nil {
		t.Fatalf("期望错误，但得到 nil")
	}
	if _, err := NewMeasureClient(Options{ProxyURL: "127.0.0.1"}); err == nil {
		t.Fatalf("缺少 scheme 时期望错误")
	}
}

func TestTransport_SetsNoStoreAndUA(t *testing.T) {
	var gotCC, gotPragma, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCC = r.Header.Get("Cache-Control")
		gotPragma = r.Header.Get("Pragma")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	c, err := NewMeasureClient(Options{UserAgent: "urlbench-test"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	resp, err := c.Get(srv.URL)
	if err != nil {
		t.Fatalf("请求失败：%v", err)
	}
	resp.Body.Close()

	if gotCC != "no-store" || gotPragma != "no-cache" {
		t.Fatalf("缺少缓存指令：Cache-Control=%q Pragma=%q", gotCC, gotPragma)
	}
	if gotUA != "urlbench-test" {
		t.Fatalf("期望固定 UA，实际 %q", gotUA)
	}
}

func TestTransport_SingleAttemptOnError(t *testing.T) {
	// 指向一个已关闭的端口：RoundTrip 必然失败，且只应尝试一次。
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	var dials atomic.Int32
	base := &http.Transport{}
	base.Proxy = func(r *http.Request) (*url.URL, error) {
		dials.Add(1)
		return nil, nil
	}
	tr := &Transport{Base: base, ua: globalUA}
	req, _ := http.NewRequest(http.MethodGet, addr, nil)
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("期望错误")
	}
	if n := dials.Load(); n != 1 {
		t.Fatalf("测量请求不应重试，期望 1 次，实际 %d", n)
	}
}

func TestTransport_NilBase(t *testing.T) {
	tr := &Transport{}
	req, _ := http.NewRequest(http.MethodGet, "http://example.test", nil)
	if _, err := tr.RoundTrip(req); err == nil {
		t.Fatalf("Base 为空时期望错误")
	}
}
