package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/domain"
)

// recentLimit 是“最近完成”列表保留的条数。
const recentLimit = 8

// Model 是 --tui 模式下的 bubbletea 模型。
type Model struct {
	info     bench.RunInfo
	items    []domain.Outcome
	recent   []domain.Outcome
	done     int
	total    int
	ok       int
	fail     int
	stats    domain.Stats
	finished bool
	aborted  bool

	startedAt time.Time
	now       time.Time
	width     int
}

// StartMsg 对应 bench.Observer.OnStart。
type StartMsg bench.RunInfo

// ItemMsg 对应 bench.Observer.OnItemDone。
type ItemMsg struct {
	Done     int
	Total    int
	Outcome  domain.Outcome
	Snapshot []domain.Outcome
}

// FinishMsg 对应 bench.Observer.OnFinish。
type FinishMsg domain.BatchReport

// TickMsg 驱动耗时显示刷新。
type TickMsg time.Time

func NewModel() Model {
	now := time.Now()
	return Model{startedAt: now, now: now, width: 80}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Aborted 报告用户是否在批次结束前退出了界面。
func (m Model) Aborted() bool { return m.aborted }

// Finished 报告是否已收到批次结束事件。
func (m Model) Finished() bool { return m.finished }
