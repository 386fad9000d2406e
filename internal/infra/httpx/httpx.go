package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Transport 把“UA 池 + no-store 缓存指令”固化为统一策略。每个请求只发一次。
//
// 测量层只负责计时与渲染，不关心网络策略细节。
type Transport struct {
	Base *http.Transport

	ua *uaPool

	// UserAgent 非空时固定使用该 UA，否则每个请求从 UA 池随机选取。
	UserAgent string

	// NoStore 为 true 时给每个请求加 Cache-Control: no-store / Pragma: no-cache。
	NoStore bool
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.userAgent())
	}
	if t.NoStore {
		r.Header.Set("Cache-Control", "no-store")
		r.Header.Set("Pragma", "no-cache")
	}
	return t.Base.RoundTrip(r)
}

func (t *Transport) userAgent() string {
	if ua := strings.TrimSpace(t.UserAgent); ua != "" {
		return ua
	}
	if t.ua == nil {
		return globalUA.random()
	}
	return t.ua.random()
}

// Options 描述测量 client 的网络策略。零值即默认：直连、无超时。
type Options struct {
	ProxyURL  string
	Timeout   time.Duration
	UserAgent string
}

// NewMeasureClient 构造用于测量的 HTTP client。
//
// 规则：
// - 所有请求带 no-store 指令（配合 cache-buster 参数确保每次都是新请求）
// - Timeout<=0：不设总超时，挂起的请求会一直占用所在 lane
// - proxyURL 非空：走代理
func NewMeasureClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:               nil,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConnsPerHost: 8,
	}

	proxyURL := strings.TrimSpace(opts.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host")
		}
		base.Proxy = http.ProxyURL(u)
	}

	tr := &Transport{
		Base:      base,
		ua:        globalUA,
		UserAgent: opts.UserAgent,
		NoStore:   true,
	}
	c := &http.Client{Transport: tr}
	if opts.Timeout > 0 {
		c.Timeout = opts.Timeout
	}
	return c, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = newUAPool()

func newUAPool() *uaPool {
	// 浏览器 UA：部分站点会对非浏览器 UA 返回精简页面，影响渲染耗时的可比性。
	uas := []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_6) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	}
	return &uaPool{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		uas: uas,
	}
}
