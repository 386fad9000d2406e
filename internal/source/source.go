package source

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/urlbench/internal/classify"
	"github.com/John-Robertt/urlbench/internal/domain"
)

// 单行 URL 的上限；默认 64KiB 对带长签名参数的 CDN 链接不够用。
const maxLineBytes = 1 << 20

// ParseLines 把多行文本解析为 URL 列表：逐行 trim，丢弃空行。
// 保留原始顺序与重复项（重复 URL 会被各自测量一次）。
func ParseLines(text string) []string {
	return Normalize(strings.Split(text, "\n"))
}

// Normalize 对已拆分好的 URL 列表做同样的 trim 与空行过滤。
func Normalize(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Read 与 ParseLines 相同，但从流中读取。
func Read(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	out := make([]string, 0, 16)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadFile 读取 URL 列表文件；path 为 "-" 时读取 stdin。
func ReadFile(path string) ([]string, error) {
	if path == "-" {
		return Read(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// BuildItems 为每个 URL 生成 WorkItem；Category 只在这里判定一次。
func BuildItems(urls []string) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(urls))
	for i, u := range urls {
		items = append(items, domain.WorkItem{
			Index:    i,
			URL:      u,
			Category: classify.Detect(u),
		})
	}
	return items
}
