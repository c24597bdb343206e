package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/LFroesch/ferry/internal/coordinator"
	"github.com/LFroesch/ferry/internal/panel"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("240")).
			Padding(0, 1)

	paneHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("105"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("57")).
			Foreground(lipgloss.Color("230"))

	normalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.tooSmall {
		return m.renderTooSmall()
	}

	half := m.width / 2
	left := m.renderPane(m.panes[panel.Local], half)
	right := m.renderPane(m.panes[panel.Remote], m.width-half)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.renderFilterLine(),
		m.renderStatusBar(),
	)
}

func (m *Model) renderTooSmall() string {
	minCols := (coordinator.MinWidth + cellWidth - 1) / cellWidth
	minRows := (coordinator.MinHeight + cellHeight - 1) / cellHeight
	msg := fmt.Sprintf("Terminal too small: %dx%d, need at least %dx%d", m.width, m.height, minCols, minRows)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, errorStyle.Render(msg))
}

func (m *Model) renderHeader() string {
	local := m.panes[panel.Local].snap
	remote := m.panes[panel.Remote].snap
	title := fmt.Sprintf("⛴ Ferry - %s ⇄ %s", locationLabel(local), locationLabel(remote))
	return titleStyle.Width(m.width).Render(truncate(title, m.width-2))
}

func locationLabel(snap panel.Snapshot) string {
	if snap.Listing == panel.ListingDirectory {
		return snap.Path
	}
	return "drives"
}

func (m *Model) renderPane(p *pane, width int) string {
	height := m.contentHeight()
	p.scrollTo(height)

	active := p.kind == m.active
	header := paneHeaderStyle.Render(truncate(fmt.Sprintf("%s: %s", m.paneTitle(p.kind), locationLabel(p.snap)), width-4))

	var lines []string
	switch {
	case p.snap.Status == panel.StatusIdle:
		lines = append(lines, dimStyle.Render("Waiting..."))
	case p.snap.Status == panel.StatusFailed && coordinator.IsTimeout(p.snap.Err):
		lines = append(lines, errorStyle.Render(truncate("Timed out, r to retry", width-4)))
	case p.snap.Status == panel.StatusFailed:
		lines = append(lines, errorStyle.Render(truncate("Error: "+errString(p.snap.Err), width-4)))
	case p.snap.Pending && len(p.visible) == 0:
		lines = append(lines, dimStyle.Render("Loading..."))
	case len(p.visible) == 0 && p.filter != "":
		lines = append(lines, dimStyle.Render("No matches"))
	case len(p.visible) == 0:
		lines = append(lines, dimStyle.Render("Empty"))
	}

	room := height - len(lines)
	for i := p.offset; i < len(p.visible) && i < p.offset+room; i++ {
		lines = append(lines, m.renderRow(p, i, width-4, active))
	}

	borderColor := lipgloss.Color("240")
	if active {
		borderColor = lipgloss.Color("99")
	}
	border := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Width(width - 2).
		Height(height + 1)

	return border.Render(header + "\n" + strings.Join(lines, "\n"))
}

func (m *Model) renderRow(p *pane, i, width int, active bool) string {
	r := p.rows[p.visible[i]]

	var right string
	switch {
	case r.drive != nil:
		right = dimStyle.Render(r.drive.Kind.String())
	case r.entry != nil && !r.isDir():
		right = formatSize(r.entry.Size)
	}
	rightWidth := lipgloss.Width(right)

	maxName := width - rightWidth - 4
	if maxName < 4 {
		maxName = 4
	}
	name := truncate(r.name, maxName)
	if name == r.name {
		name = highlightMatches(name, p.matches[i])
	}

	left := fmt.Sprintf("%s %s", rowIcon(r), name)
	padding := width - lipgloss.Width(left) - rightWidth
	if padding < 1 {
		padding = 1
	}
	line := left + strings.Repeat(" ", padding) + right

	if active && i == p.cursor {
		return selectedStyle.Render(line)
	}
	return normalStyle.Render(line)
}

func (m *Model) renderFilterLine() string {
	if m.filtering {
		return m.filterInput.View()
	}
	if f := m.activePane().filter; f != "" {
		return dimStyle.Render("filter: " + f + " (/ to edit, esc in filter to clear)")
	}
	return ""
}

func (m *Model) renderStatusBar() string {
	p := m.activePane()

	var statusText string
	if len(p.visible) > 0 {
		statusText = fmt.Sprintf("%s %d/%d", p.kind, p.cursor+1, len(p.visible))
	} else {
		statusText = p.kind.String()
	}
	if p.snap.Pending {
		statusText += " | Loading..."
	}
	if m.statusMsg != "" {
		statusText += " | " + m.statusMsg
	}

	var hints []string
	for _, b := range m.keys.shortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	rightSide := strings.Join(hints, " | ")

	padding := m.width - 2 - lipgloss.Width(statusText) - lipgloss.Width(rightSide)
	if padding < 1 {
		// Hints are the first thing to go on a narrow terminal
		rightSide = ""
		padding = 1
	}
	return statusStyle.Width(m.width).Render(statusText + strings.Repeat(" ", padding) + rightSide)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
