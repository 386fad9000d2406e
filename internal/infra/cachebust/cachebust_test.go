package cachebust

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestApply_Separator(t *testing.T) {
	cases := []struct {
		in     string
		prefix string
	}{
		{"https://x/a.jpg", "https://x/a.jpg?" + Param + "="},
		{"https://x/a.jpg?w=200", "https://x/a.jpg?w=200&" + Param + "="},
		{"https://x/a?", "https://x/a?" + Param + "="},
	}
	for _, tc := range cases {
		got := Apply(tc.in)
		if !strings.HasPrefix(got, tc.prefix) {
			t.Fatalf("Apply(%q)=%q，期望前缀 %q", tc.in, got, tc.prefix)
		}
	}
}

func TestApply_KeepsFragment(t *testing.T) {
	got := Apply("https://x/page.html#top")
	if !strings.HasSuffix(got, "#top") {
		t.Fatalf("fragment 应保留在末尾：%q", got)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("结果不是合法 URL：%v", err)
	}
	if u.Query().Get(Param) == "" {
		t.Fatalf("缺少 %s 参数：%q", Param, got)
	}
}

func TestApply_UniqueEvenAtSameInstant(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		got := applyAt("https://x/a.jpg", now)
		if seen[got] {
			t.Fatalf("同一时刻生成了重复的 render URL：%q", got)
		}
		seen[got] = true
	}
}

func TestApply_DifferentInstantsDiffer(t *testing.T) {
	a := applyAt("https://x/a.jpg", time.UnixMilli(1000))
	b := applyAt("https://x/a.jpg", time.UnixMilli(2000))
	if a == b {
		t.Fatalf("不同时刻生成的 render URL 不应相同：%q", a)
	}
	if !strings.Contains(a, Param+"=1000_") || !strings.Contains(b, Param+"=2000_") {
		t.Fatalf("参数应以毫秒时间戳开头：%q %q", a, b)
	}
}

func TestToken_SeparatesRandomAndSequence(t *testing.T) {
	got := applyAt("https://x/a.jpg", time.UnixMilli(1000))
	v := got[strings.Index(got, Param+"=")+len(Param)+1:]
	parts := strings.Split(strings.TrimPrefix(v, "1000_"), "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		t.Fatalf("token 应为 <ms>_<随机>-<序号>：%q", v)
	}
}
