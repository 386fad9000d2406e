package classify

import (
	"strings"

	"github.com/John-Robertt/urlbench/internal/domain"
)

// 扩展名只做子串匹配（不解析 URL），因此 "a.png?x=1" 与 "/img.jpg/raw" 都算图片。
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".svg", ".ico"}

// 常见的图片服务：URL 不带扩展名，但返回的一定是图片。
var imageServices = []string{
	"picsum.photos",
	"unsplash.com/photos",
	"images.unsplash.com",
	"via.placeholder.com",
	"placehold.co",
	"dummyimage.com",
}

// Detect 判定 URL 的类别。
//
// 约束：纯函数，不做任何 I/O；相同输入永远得到相同输出。
// 未命中任何图片规则时一律视为 Document。
func Detect(rawURL string) domain.Category {
	low := strings.ToLower(strings.TrimSpace(rawURL))
	for _, ext := range imageExtensions {
		if strings.Contains(low, ext) {
			return domain.CategoryImage
		}
	}
	for _, svc := range imageServices {
		if strings.Contains(low, svc) {
			return domain.CategoryImage
		}
	}
	return domain.CategoryDocument
}
