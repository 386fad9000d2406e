package classify

import (
	"testing"

	"github.com/John-Robertt/urlbench/internal/domain"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		in   string
		want domain.Category
	}{
		{"a.jpg", domain.CategoryImage},
		{"a.png?x=1", domain.CategoryImage},
		{"https://picsum.photos/200", domain.CategoryImage},
		{"https://example.com/index.html", domain.CategoryDocument},
		{"HTTPS://CDN.TEST/LOGO.SVG", domain.CategoryImage},
		{"https://x/favicon.ico", domain.CategoryImage},
		{"https://images.unsplash.com/photo-1", domain.CategoryImage},
		{"https://placehold.co/600x400", domain.CategoryImage},
		{"https://dummyimage.com/300", domain.CategoryImage},
		{"https://example.com/", domain.CategoryDocument},
		{"", domain.CategoryDocument},
	}
	for _, tc := range cases {
		if got := Detect(tc.in); got != tc.want {
			t.Fatalf("Detect(%q)=%q，期望 %q", tc.in, got, tc.want)
		}
	}
}

func TestDetect_Deterministic(t *testing.T) {
	in := "https://x/b.html"
	first := Detect(in)
	for i := 0; i < 100; i++ {
		if got := Detect(in); got != first {
			t.Fatalf("第 %d 次结果不同：%q vs %q", i, got, first)
		}
	}
}
