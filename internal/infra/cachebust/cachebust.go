package cachebust

import (
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Param 是追加到 URL 上的缓存破坏参数名。
const Param = "_cacheBuster"

var (
	mu  sync.Mutex
	rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	seq atomic.Uint64
)

// Apply 给 URL 追加 `_cacheBuster=<unix 毫秒>_<base36 随机串>`。
//
// 随机串后以 '-' 接上进程内单调递增的序号：同一毫秒内对同一 URL 生成两次也不会相同。
// 不解析 URL，只按是否已含 '?' 选择分隔符；fragment 会被保留在参数之后。
func Apply(rawURL string) string {
	return applyAt(rawURL, time.Now())
}

func applyAt(rawURL string, now time.Time) string {
	base, frag := rawURL, ""
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		base, frag = rawURL[:i], rawURL[i:]
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	return base + sep + Param + "=" + token(now) + frag
}

func token(now time.Time) string {
	mu.Lock()
	r := rnd.Uint32()
	mu.Unlock()
	n := seq.Add(1)
	return strconv.FormatInt(now.UnixMilli(), 10) + "_" +
		strconv.FormatUint(uint64(r), 36) + "-" + strconv.FormatUint(n, 36)
}
