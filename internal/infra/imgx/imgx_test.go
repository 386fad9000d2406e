package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"testing"

	"golang.org/x/image/bmp"
)

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 30), uint8(y * 60), 0, 255})
		}
	}
	return img
}

func TestProbeAndRender_Raster(t *testing.T) {
	var pngBuf, gifBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage()); err != nil {
		t.Fatalf("png encode 失败：%v", err)
	}
	if err := gif.Encode(&gifBuf, testImage(), nil); err != nil {
		t.Fatalf("gif encode 失败：%v", err)
	}
	if err := bmp.Encode(&bmpBuf, testImage()); err != nil {
		t.Fatalf("bmp encode 失败：%v", err)
	}

	for name, b := range map[string][]byte{"png": pngBuf.Bytes(), "gif": gifBuf.Bytes(), "bmp": bmpBuf.Bytes()} {
		info, err := Probe(b)
		if err != nil {
			t.Fatalf("%s: Probe 失败：%v", name, err)
		}
		if info.Format != name || info.Width != 8 || info.Height != 4 || !info.Rasterizable {
			t.Fatalf("%s: 探测结果不正确：%+v", name, info)
		}
		if err := Render(b, info); err != nil {
			t.Fatalf("%s: Render 失败：%v", name, err)
		}
	}
}

func TestProbe_SVGAndICO(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	info, err := Probe(svg)
	if err != nil || info.Format != FormatSVG || info.Rasterizable {
		t.Fatalf("svg 探测不正确：info=%+v err=%v", info, err)
	}
	if err := Render(svg, info); err != nil {
		t.Fatalf("svg Render 失败：%v", err)
	}

	ico := []byte{0, 0, 1, 0, 1, 0, 16, 16, 0, 0}
	info, err = Probe(ico)
	if err != nil || info.Format != FormatICO {
		t.Fatalf("ico 探测不正确：info=%+v err=%v", info, err)
	}
	if err := Render(ico, info); err != nil {
		t.Fatalf("ico Render 失败：%v", err)
	}
}

func TestProbe_NotImage(t *testing.T) {
	for _, b := range [][]byte{nil, []byte("<html><body>404</body></html>"), {0x01, 0x02, 0x03}} {
		if _, err := Probe(b); !errors.Is(err, ErrNotImage) {
			t.Fatalf("Probe(%q) 期望 ErrNotImage，实际 %v", b, err)
		}
	}
}

func TestRender_TruncatedPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage()); err != nil {
		t.Fatalf("png encode 失败：%v", err)
	}
	b := buf.Bytes()
	// 头部完整但数据被截断：Probe 通过，Render 失败。
	cut := b[:len(b)-20]
	info, err := Probe(cut)
	if err != nil {
		t.Fatalf("截断 PNG 的头部应可探测：%v", err)
	}
	if err := Render(cut, info); err == nil {
		t.Fatalf("截断 PNG 期望解码失败")
	}
}
