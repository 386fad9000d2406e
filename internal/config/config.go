package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/urlbench/internal/domain"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
)

const (
	DefaultConcurrency = 4
	MaxConcurrency     = 50

	DefaultWidth  = 800
	DefaultHeight = 600
	MinFrameSide  = 50
	MaxFrameSide  = 2000
)

// DefaultFileNames 是 cwd 下自动发现的配置文件名（按顺序取第一个存在的）。
var DefaultFileNames = []string{"urlbench.yaml", "urlbench.yml", "urlbench.toml", "urlbench.json"}

// CLIArgs 保留“是否显式指定”的信息，保证 CLI 能覆盖配置文件（包括覆盖成零值）。
type CLIArgs struct {
	ConfigPath string

	Concurrency    int
	ConcurrencySet bool

	Width     int
	WidthSet  bool
	Height    int
	HeightSet bool

	Timeout    time.Duration
	TimeoutSet bool

	ProxyURL string
	ProxySet bool
}

// FileConfig 是配置文件的解析结构；yaml/toml/json 共用同一组字段名。
type FileConfig struct {
	Concurrency int          `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	Timeout     string       `json:"timeout" yaml:"timeout" toml:"timeout"`
	Proxy       *ProxyConfig `json:"proxy" yaml:"proxy" toml:"proxy"`
	Frame       *FrameConfig `json:"frame" yaml:"frame" toml:"frame"`
	UserAgent   string       `json:"user_agent" yaml:"user_agent" toml:"user_agent"`
	URLs        []string     `json:"urls" yaml:"urls" toml:"urls"`
}

type ProxyConfig struct {
	URL string `json:"url" yaml:"url" toml:"url"`
}

type FrameConfig struct {
	Width  int `json:"width" yaml:"width" toml:"width"`
	Height int `json:"height" yaml:"height" toml:"height"`
}

// EffectiveConfig 是合并并规范化后的最终配置，下游不再做默认值与优先级判断。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；未使用配置文件时为空。
	ConfigPath string

	Concurrency int
	Timeout     time.Duration
	ProxyURL    string
	Frame       domain.FrameSize
	UserAgent   string
	URLs        []string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Defaults 返回不读任何文件时的最终配置。
func Defaults() EffectiveConfig {
	return EffectiveConfig{
		Concurrency: DefaultConcurrency,
		Frame:       domain.FrameSize{Width: DefaultWidth, Height: DefaultHeight},
	}
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并。
//
// 发现规则：
// 1) --config 指定：必须存在，扩展名决定格式（.yaml/.yml/.toml/.json）
// 2) 未指定：依次尝试 cwd 下的 DefaultFileNames，都不存在则只用默认值
//
// 覆盖优先级：CLI（显式指定）> 配置文件 > 默认值。数值越界时截断而非报错。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		for _, name := range DefaultFileNames {
			candidate := filepath.Join(cwdAbs, name)
			got, exists, e := readFileConfig(candidate)
			if e != nil {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: candidate, Err: e}
			}
			if exists {
				cfgPath, fc = candidate, got
				break
			}
		}
	}

	return merge(cli, fc, cfgPath)
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	eff := Defaults()
	eff.ConfigPath = cfgPath

	// concurrency：CLI > config > 默认；0 视为未设置
	if cli.ConcurrencySet {
		eff.Concurrency = cli.Concurrency
	} else if fc.Concurrency != 0 {
		eff.Concurrency = fc.Concurrency
	}
	eff.Concurrency = ClampConcurrency(eff.Concurrency)

	if fc.Frame != nil {
		if fc.Frame.Width != 0 {
			eff.Frame.Width = fc.Frame.Width
		}
		if fc.Frame.Height != 0 {
			eff.Frame.Height = fc.Frame.Height
		}
	}
	if cli.WidthSet {
		eff.Frame.Width = cli.Width
	}
	if cli.HeightSet {
		eff.Frame.Height = cli.Height
	}
	eff.Frame.Width = ClampFrameSide(eff.Frame.Width)
	eff.Frame.Height = ClampFrameSide(eff.Frame.Height)

	// timeout：0 表示不设总超时
	if cli.TimeoutSet {
		eff.Timeout = cli.Timeout
	} else if s := strings.TrimSpace(fc.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timeout 无效：%w", err)}
		}
		eff.Timeout = d
	}
	if eff.Timeout < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("timeout 不能为负：%v", eff.Timeout)}
	}

	if cli.ProxySet {
		eff.ProxyURL = strings.TrimSpace(cli.ProxyURL)
	} else if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if eff.ProxyURL != "" {
		u, err := url.Parse(eff.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("proxy.url 无效：%q", eff.ProxyURL)}
		}
	}

	eff.UserAgent = strings.TrimSpace(fc.UserAgent)
	eff.URLs = append([]string(nil), fc.URLs...)
	return eff, nil
}

// ClampConcurrency 把并发数截断到 [1, MaxConcurrency]。
func ClampConcurrency(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}

// ClampFrameSide 把预览视口边长截断到 [MinFrameSide, MaxFrameSide]。
func ClampFrameSide(n int) int {
	if n < MinFrameSide {
		return MinFrameSide
	}
	if n > MaxFrameSide {
		return MaxFrameSide
	}
	return n
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 按扩展名读取并解析配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	case ".toml":
		err = toml.Unmarshal(b, &fc)
	case ".json":
		err = json.Unmarshal(b, &fc)
	default:
		err = fmt.Errorf("不支持的配置格式 %q（仅支持 .yaml/.yml/.toml/.json）", ext)
	}
	if err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
