package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/urlbench/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimmedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("urlbench"))
	if m.info.RunID != "" {
		b.WriteString(dimmedStyle.Render(fmt.Sprintf(" run %s  lanes=%d  frame=%dx%d",
			shortID(m.info.RunID), m.info.Lanes, m.info.Frame.Width, m.info.Frame.Height)))
	}
	b.WriteString("\n\n")

	elapsed := m.now.Sub(m.startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	fmt.Fprintf(&b, "%s %s/%s  %s %s  %s %s  %s\n",
		barStyle.Render(Bar(m.done, m.total, m.barWidth())),
		humanize.Comma(int64(m.done)), humanize.Comma(int64(m.total)),
		okStyle.Render("ok"), humanize.Comma(int64(m.ok)),
		failStyle.Render("fail"), humanize.Comma(int64(m.fail)),
		dimmedStyle.Render(elapsed.Truncate(100*time.Millisecond).String()),
	)

	if len(m.recent) > 0 {
		lines := make([]string, 0, len(m.recent))
		for i := len(m.recent) - 1; i >= 0; i-- {
			lines = append(lines, m.formatRow(m.recent[i]))
		}
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(strings.Join(lines, "\n")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.formatStats())
	b.WriteString("\n")

	if m.finished {
		b.WriteString(dimmedStyle.Render("完成"))
	} else {
		b.WriteString(dimmedStyle.Render("q 退出（进行中的测量会被取消）"))
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) barWidth() int {
	w := m.width - 40
	if w > 40 {
		w = 40
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) formatRow(o domain.Outcome) string {
	urlWidth := m.width - 50
	if urlWidth < 20 {
		urlWidth = 20
	}
	if !o.Success {
		return fmt.Sprintf("%s %-8s %s %s",
			failStyle.Render("FAIL"), o.Category, Truncate(o.URL, urlWidth), dimmedStyle.Render(o.ErrorMsg))
	}
	return fmt.Sprintf("%s %-8s %s %s",
		okStyle.Render("OK  "), o.Category, Truncate(o.URL, urlWidth),
		dimmedStyle.Render(fmt.Sprintf("%s / %s / %s", FormatMS(o.DownloadMS), FormatMS(o.RenderMS), FormatMS(o.TotalMS))))
}

func (m Model) formatStats() string {
	s := m.stats
	if s.Count == 0 {
		return dimmedStyle.Render("avg download/render/total: -")
	}
	return fmt.Sprintf("avg download %s  render %s  total %s\nmax download %s  render %s  total %s",
		FormatMS(s.AvgDownloadMS), FormatMS(s.AvgRenderMS), FormatMS(s.AvgTotalMS),
		FormatMS(s.MaxDownloadMS), FormatMS(s.MaxRenderMS), FormatMS(s.MaxTotalMS),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
