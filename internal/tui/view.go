package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/perfassist/internal/constants"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/lifecycle"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/period"
	"github.com/julianstephens/perfassist/internal/richtext"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case constants.StateEditing:
		content = docStyle.Render(m.form.View())
	case constants.StateConfirmation:
		content = m.viewConfirmDelete()
	default:
		m.syncViewport()
		content = m.viewport.View()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	title, err := m.nav.Title(m.loc)
	if err != nil {
		title = err.Error()
	}
	var tabs []string
	for _, u := range period.Units {
		label := strings.ToUpper(u.String()[:1]) + u.String()[1:]
		if u == m.nav.Unit {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, append([]string{titleStyle.Render(title)}, tabs...)...)
	if m.loading {
		header += mutedStyle.Render("  loading...")
	}
	return header
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return warningStyle.Render(m.errMsg)
	case m.status != "":
		return statusStyle.Render(m.status)
	default:
		return ""
	}
}

func (m Model) viewConfirmDelete() string {
	d, _ := datemath.ParseISODate(m.confirmDate)
	return docStyle.Render(fmt.Sprintf("%s\n\n%s",
		dangerStyle.Render(fmt.Sprintf("Delete plan and fact for %s?", datemath.FormatHuman(d, m.loc))),
		"Press y to confirm, n to cancel."))
}

// renderFeed lays out the window newest day first under week headings. It
// returns the content and the line of the selected slot.
func (m Model) renderFeed() (string, int) {
	var b strings.Builder
	line, selectedLine := 0, 0
	write := func(s string) {
		b.WriteString(s)
		b.WriteByte('\n')
		line++
	}

	today := m.today()
	var week time.Time
	for i, d := range m.days {
		if ws := datemath.StartOfWeek(d); !ws.Equal(week) {
			if i > 0 {
				write("")
			}
			week = ws
			write(weekStyle.Render(period.WeekRangeTitle(ws, m.loc)))
		}
		label := datemath.FormatHuman(d, m.loc)
		if d.Equal(today) {
			write(todayStyle.Render(label + " (today)"))
		} else {
			write(dateStyle.Render(label))
		}

		date := datemath.FormatISODate(d)
		for k, kind := range models.Kinds {
			row := i*len(models.Kinds) + k
			marker := "  "
			if row == m.cursor {
				marker = cursorStyle.Render("› ")
				selectedLine = line
			}
			write(marker + m.renderSlot(m.slotAt(date, kind)))
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), selectedLine
}

func (m Model) renderSlot(s lifecycle.Slot) string {
	label := labelStyle.Render(fmt.Sprintf("%-5s", kindLabels[s.Kind]+":"))
	text := firstLine(richtext.PlainText(s.Text()))
	if text == "" {
		text = mutedStyle.Render("(empty)")
	}

	var badge string
	switch s.State {
	case lifecycle.StateEditing:
		badge = warningStyle.Render(" [unsaved]")
	case lifecycle.StateSaving:
		badge = mutedStyle.Render(" [saving...]")
	case lifecycle.StatePendingDelete:
		text = mutedStyle.Render(text)
		badge = dangerStyle.Render(" [deleting, d to undo]")
	}
	if s.Err != nil {
		badge += dangerStyle.Render(" !")
	}

	out := label + " " + text + badge
	if m.width > 0 {
		out = lipgloss.NewStyle().MaxWidth(m.width - 4).Render(out)
	}
	return out
}

func firstLine(s string) string {
	first, rest, _ := strings.Cut(s, "\n")
	if rest != "" {
		return first + " ..."
	}
	return first
}

// resize fits the viewport between the header and the footer
func (m *Model) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	footer := lipgloss.Height(m.help.View(m)) + 1
	h := m.height - 1 - footer
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.syncViewport()
}

// syncViewport refreshes the feed and keeps the selected slot visible
func (m *Model) syncViewport() {
	content, selected := m.renderFeed()
	m.viewport.SetContent(content)
	switch {
	case selected < m.viewport.YOffset:
		// Keep the date line above the slot in view
		m.viewport.SetYOffset(max(selected-2, 0))
	case selected >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(selected - m.viewport.Height + 1)
	}
}
