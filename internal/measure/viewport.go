package measure

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// ErrViewportClosed 表示视口已被销毁后仍尝试加载。
var ErrViewportClosed = errors.New("viewport 已关闭")

// sandboxed 是视口里不会执行、也不会触发子资源请求的元素。
const sandboxed = "script,noscript,iframe,frame,object,embed,link[rel=preload],link[rel=prefetch]"

var (
	openViewports atomic.Int64
	liveBlobs     atomic.Int64
)

// Viewport 是离屏、沙箱化的文档渲染面：
// 只做 DOM 解析与文本排版，不执行脚本，不拉取子资源。
//
// 一次测量至多持有一个 Viewport，结算后 Close 恰好生效一次。
type Viewport struct {
	conv *md.Converter

	mu     sync.Mutex
	closed bool
	title  string
	text   string

	closeOnce sync.Once
}

func newViewport(rawURL string) *Viewport {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	openViewports.Add(1)
	return &Viewport{conv: md.NewConverter(host, true, nil)}
}

// Load 把 HTML 流解析进视口并完成一次排版；返回即视为 load 事件。
func (v *Viewport) Load(r io.Reader) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrViewportClosed
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return err
	}
	doc.Find(sandboxed).Remove()

	v.title = strings.TrimSpace(doc.Find("title").First().Text())
	v.text = v.conv.Convert(doc.Find("body"))
	return nil
}

func (v *Viewport) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

// Text 返回最近一次排版得到的纯文本（markdown）。
func (v *Viewport) Text() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text
}

func (v *Viewport) Close() {
	v.closeOnce.Do(func() {
		v.mu.Lock()
		v.closed = true
		v.title, v.text = "", ""
		v.mu.Unlock()
		openViewports.Add(-1)
	})
}

// blob 是内存中的离线文档句柄；Release 幂等。
type blob struct {
	data []byte
	once sync.Once
}

func newBlob(b []byte) *blob {
	liveBlobs.Add(1)
	return &blob{data: b}
}

func (b *blob) Reader() io.Reader { return bytes.NewReader(b.data) }

func (b *blob) Release() {
	b.once.Do(func() {
		b.data = nil
		liveBlobs.Add(-1)
	})
}
