package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/domain"
)

// Sender 是 *tea.Program 的最小子集，便于测试替换。
type Sender interface {
	Send(msg tea.Msg)
}

// Observer 把批次事件转发成 bubbletea 消息。
type Observer struct {
	S Sender
}

var _ bench.Observer = Observer{}

func (o Observer) OnStart(info bench.RunInfo) {
	o.S.Send(StartMsg(info))
}

func (o Observer) OnItemDone(done, total int, res domain.Outcome, snapshot []domain.Outcome) {
	o.S.Send(ItemMsg{Done: done, Total: total, Outcome: res, Snapshot: snapshot})
}

func (o Observer) OnFinish(rep domain.BatchReport) {
	o.S.Send(FinishMsg(rep))
}
