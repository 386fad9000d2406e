package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/John-Robertt/urlbench/internal/bench"
	"github.com/John-Robertt/urlbench/internal/domain"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.finished {
				m.aborted = true
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case TickMsg:
		m.now = time.Time(msg)
		if m.finished {
			return m, nil
		}
		return m, tickCmd()
	case StartMsg:
		m.info = bench.RunInfo(msg)
		m.total = msg.Total
		m.items = append([]domain.Outcome(nil), msg.Placeholders...)
		if !msg.StartedAt.IsZero() {
			m.startedAt = msg.StartedAt
		}
	case ItemMsg:
		m.done = msg.Done
		m.total = msg.Total
		if msg.Outcome.Success {
			m.ok++
		} else {
			m.fail++
		}
		if msg.Snapshot != nil {
			m.items = msg.Snapshot
		}
		m.recent = append(m.recent, msg.Outcome)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		m.stats = domain.ComputeStats(m.items)
	case FinishMsg:
		m.finished = true
		m.items = msg.Items
		m.stats = msg.Stats
		m.done = msg.Stats.Total
		m.total = msg.Stats.Total
		m.ok = msg.Stats.Count
		m.fail = msg.Stats.Failed
		if !msg.FinishedAt.IsZero() {
			m.now = msg.FinishedAt
		}
		return m, tea.Quit
	}
	return m, nil
}
