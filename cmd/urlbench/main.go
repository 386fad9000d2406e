package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/config"
	"github.com/John-Robertt/urlbench/internal/infra/fsx"
	"github.com/John-Robertt/urlbench/internal/infra/logx"
	"github.com/John-Robertt/urlbench/internal/metrics"
	"github.com/John-Robertt/urlbench/internal/source"
	"github.com/John-Robertt/urlbench/internal/tui"
)

func main() {
	os.Exit(execute(os.Args[1:], defaultEnv()))
}

// cliEnv 收拢进程级依赖，测试里替换成内存缓冲区。
type cliEnv struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cwd    string

	session *bench.Session
}

func defaultEnv() *cliEnv {
	cwd, _ := os.Getwd()
	return &cliEnv{
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		cwd:     cwd,
		session: bench.NewSession(),
	}
}

// exitError 携带进程退出码；2 表示参数/配置错误。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// execute 运行 CLI 并返回退出码：0 全部成功；1 存在失败条目或运行错误；2 参数错误。
func execute(args []string, env *cliEnv) int {
	root := newRootCmd(env)
	root.SetArgs(args)
	root.SetIn(env.stdin)
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil && ee.code == 2 {
			fmt.Fprintf(env.stderr, "参数错误：%v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(env.stderr, "参数错误：%v\n", err)
	return 2
}

func newRootCmd(env *cliEnv) *cobra.Command {
	root := &cobra.Command{
		Use:           "urlbench",
		Short:         "批量测量 URL 的下载与渲染耗时",
		Long:          "urlbench 以有限并发测量一批 URL（图片或 HTML 文档）的下载、渲染与总耗时，并输出逐条结果与统计。",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: 2, err: err}
	})
	root.AddCommand(newRunCmd(env))
	return root
}

type runFlags struct {
	file        string
	configPath  string
	concurrency int
	width       int
	height      int
	timeout     time.Duration
	proxy       string
	json        bool
	reportPath  string
	metricsPath string
	tui         bool
	debug       bool
}

func newRunCmd(env *cliEnv) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run [url...]",
		Short: "测量一批 URL",
		Long: `测量一批 URL。URL 来源按顺序拼接：命令行参数、--file（"-" 表示 stdin）、配置文件中的 urls。
每行一个 URL；空行忽略，重复保留。`,
		Example: `  urlbench run https://picsum.photos/200 https://example.com/
  urlbench run -f urls.txt -c 8 --report out/report.json
  cat urls.txt | urlbench run -f - --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, env, f, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: 2, err: err}
	})

	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", `URL 列表文件（每行一个；"-" 表示 stdin）`)
	fl.StringVar(&f.configPath, "config", "", "配置文件（.yaml/.yml/.toml/.json；默认在当前目录查找 urlbench.*）")
	fl.IntVarP(&f.concurrency, "concurrency", "c", config.DefaultConcurrency, "并发数，范围 [1, 50]")
	fl.IntVar(&f.width, "width", config.DefaultWidth, "预览视口宽度，范围 [50, 2000]（只随报告输出）")
	fl.IntVar(&f.height, "height", config.DefaultHeight, "预览视口高度，范围 [50, 2000]（只随报告输出）")
	fl.DurationVar(&f.timeout, "timeout", 0, "单个请求的总超时（0 表示不限）")
	fl.StringVar(&f.proxy, "proxy", "", "HTTP 代理，例如 http://127.0.0.1:7890")
	fl.BoolVar(&f.json, "json", false, "即使 stdout 是终端也输出 JSON 报告")
	fl.StringVar(&f.reportPath, "report", "", "把 JSON 报告原子写入该文件")
	fl.StringVar(&f.metricsPath, "metrics-file", "", "把 Prometheus 指标以文本格式写入该文件")
	fl.BoolVar(&f.tui, "tui", false, "使用全屏交互界面展示进度（仅终端）")
	fl.BoolVar(&f.debug, "debug", false, "输出调试日志到 stderr")
	return cmd
}

func runBench(cmd *cobra.Command, env *cliEnv, f runFlags, args []string) error {
	logx.SetOutput(env.stderr)
	logx.SetDebug(f.debug)
	f.reportPath = resolvePath(env.cwd, f.reportPath)
	f.metricsPath = resolvePath(env.cwd, f.metricsPath)

	fl := cmd.Flags()
	cfg, err := config.LoadEffective(env.cwd, config.CLIArgs{
		ConfigPath:     f.configPath,
		Concurrency:    f.concurrency,
		ConcurrencySet: fl.Changed("concurrency"),
		Width:          f.width,
		WidthSet:       fl.Changed("width"),
		Height:         f.height,
		HeightSet:      fl.Changed("height"),
		Timeout:        f.timeout,
		TimeoutSet:     fl.Changed("timeout"),
		ProxyURL:       f.proxy,
		ProxySet:       fl.Changed("proxy"),
	})
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	logx.Debugf("cli", "config=%q concurrency=%d timeout=%v", cfg.ConfigPath, cfg.Concurrency, cfg.Timeout)

	urls, err := collectURLs(env, args, f.file, cfg.URLs)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var rec *metrics.Recorder
	if f.metricsPath != "" {
		rec = metrics.NewRecorder()
	}

	progressW, interactive := pickProgressWriter(env)
	var (
		uiObs   bench.Observer
		program *tea.Program
		uiDone  chan struct{}
	)
	switch {
	case interactive && f.tui:
		opts := []tea.ProgramOption{tea.WithOutput(progressW), tea.WithInput(env.stdin)}
		if strings.TrimSpace(f.file) == "-" {
			// stdin 已被 URL 列表占用
			opts[1] = tea.WithInput(nil)
		}
		program = tea.NewProgram(tui.NewModel(), opts...)
		uiDone = make(chan struct{})
		go func() {
			defer close(uiDone)
			final, err := program.Run()
			if err != nil {
				logx.Warnf("tui", "界面异常退出：%v", err)
				return
			}
			// 用户在批次结束前退出界面：取消进行中的测量。
			if m, ok := final.(tui.Model); ok && m.Aborted() {
				cancel()
			}
		}()
		uiObs = tui.Observer{S: program}
	case interactive:
		uiObs = newProgressUI(progressW, cfg)
	}

	var obs bench.Observer
	if rec != nil {
		obs = bench.Observers(uiObs, rec)
	} else {
		obs = bench.Observers(uiObs)
	}

	rep, err := env.session.Execute(ctx, cfg, urls, obs)
	if program != nil {
		if err != nil {
			program.Quit()
		}
		<-uiDone
	}
	if err != nil {
		if errors.Is(err, bench.ErrNoURLs) || config.Code(err) != "" {
			return &exitError{code: 2, err: err}
		}
		fmt.Fprintf(env.stderr, "运行失败：%v\n", err)
		return &exitError{code: 1}
	}

	code := 0
	if f.reportPath != "" {
		if err := fsx.WriteJSON(f.reportPath, rep); err != nil {
			fmt.Fprintf(env.stderr, "写入报告失败：%v\n", err)
			code = 1
		}
	}
	if rec != nil {
		if err := rec.WriteTextfile(f.metricsPath); err != nil {
			fmt.Fprintf(env.stderr, "写入指标失败：%v\n", err)
			code = 1
		}
	}

	emitReport(env, rep, f.json)
	if interactive {
		emitLocations(progressW, f)
	}

	if code == 0 && !rep.AllSucceeded() {
		code = 1
	}
	if code != 0 {
		return &exitError{code: code}
	}
	return nil
}

// collectURLs 按顺序拼接：位置参数、--file、配置文件 urls。
func collectURLs(env *cliEnv, args []string, file string, fromConfig []string) ([]string, error) {
	urls := source.ParseLines(strings.Join(args, "\n"))

	if file = strings.TrimSpace(file); file != "" {
		var (
			got []string
			err error
		)
		if file == "-" {
			got, err = source.Read(env.stdin)
		} else {
			if !filepath.IsAbs(file) {
				file = filepath.Join(env.cwd, file)
			}
			got, err = source.ReadFile(file)
		}
		if err != nil {
			return nil, usageError("读取 URL 列表失败：%v", err)
		}
		urls = append(urls, got...)
	}

	urls = append(urls, source.ParseLines(strings.Join(fromConfig, "\n"))...)
	if len(urls) == 0 {
		return nil, usageError("%v（通过参数、--file 或配置文件 urls 提供）", bench.ErrNoURLs)
	}
	return urls, nil
}

// resolvePath 以 base 为基准把相对路径变为绝对路径；空串原样返回。
func resolvePath(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
