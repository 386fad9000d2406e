package logx

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestDebugf_Gated(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetDebug(false)

	SetDebug(false)
	Debugf("measure", "hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("调试关闭时不应输出：%q", buf.String())
	}

	SetDebug(true)
	Debugf("measure", "shown %d", 2)
	if !strings.Contains(buf.String(), "[DEBUG] [measure] shown 2") {
		t.Fatalf("调试输出格式不正确：%q", buf.String())
	}

	buf.Reset()
	SetDebug(false)
	Warnf("config", "w")
	if !strings.Contains(buf.String(), "[WARN] [config] w") {
		t.Fatalf("warn 应总是输出：%q", buf.String())
	}
}
