package imgx

import (
	"bytes"
	"encoding/xml"
	"errors"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	_ "image/png"  // 注册 PNG 解码器
	"io"
	"strings"

	_ "golang.org/x/image/bmp"  // 注册 BMP 解码器
	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

// ErrNotImage 表示响应体不是可识别的图片（对应浏览器 <img> 的 onerror）。
var ErrNotImage = errors.New("imgx: not an image")

const (
	FormatSVG = "svg"
	FormatICO = "ico"
)

// Info 是图片头部探测结果。
type Info struct {
	Format string
	Width  int
	Height int

	// Rasterizable 表示有对应的像素解码器（svg/ico 没有，只做结构校验）。
	Rasterizable bool
}

// Probe 只读取头部，判断 b 是否是图片；它是“下载完成”的判定条件。
//
// 约束：
// - 栅格格式依赖已注册的解码器（jpeg/png/gif + x/image 的 bmp/webp）
// - SVG 通过前 1KiB 内是否出现 <svg 判定
// - ICO 通过 6 字节文件头判定
func Probe(b []byte) (Info, error) {
	if len(b) == 0 {
		return Info{}, ErrNotImage
	}
	if cfg, format, err := image.DecodeConfig(bytes.NewReader(b)); err == nil {
		return Info{Format: format, Width: cfg.Width, Height: cfg.Height, Rasterizable: true}, nil
	}
	if isICO(b) {
		return Info{Format: FormatICO}, nil
	}
	if isSVG(b) {
		return Info{Format: FormatSVG}, nil
	}
	return Info{}, ErrNotImage
}

// Render 把图片完整解码一次，作为“渲染”步骤的代理。
// 栅格格式做像素解码；SVG 完整走一遍 XML token 流；ICO 没有解码器，直接视为完成。
func Render(b []byte, info Info) error {
	switch {
	case info.Rasterizable:
		img, _, err := image.Decode(bytes.NewReader(b))
		if err != nil {
			return err
		}
		r := img.Bounds()
		if r.Dx() <= 0 || r.Dy() <= 0 {
			return errors.New("图片尺寸无效")
		}
		return nil
	case info.Format == FormatSVG:
		return walkXML(b)
	case info.Format == FormatICO:
		return nil
	default:
		return ErrNotImage
	}
}

func isICO(b []byte) bool {
	// reserved=0, type=1(icon), count>0
	return len(b) >= 6 && b[0] == 0 && b[1] == 0 && b[2] == 1 && b[3] == 0 && (b[4] != 0 || b[5] != 0)
}

func isSVG(b []byte) bool {
	head := b
	if len(head) > 1024 {
		head = head[:1024]
	}
	return strings.Contains(strings.ToLower(string(head)), "<svg")
}

func walkXML(b []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.Strict = false
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
