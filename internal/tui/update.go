package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/LFroesch/ferry/internal/coordinator"
	"github.com/LFroesch/ferry/internal/logger"
	"github.com/LFroesch/ferry/internal/panel"
)

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("Ferry"),
		func() tea.Msg {
			// The event loop is running, so presenter sends can land.
			m.ctrl.HandleEvent(coordinator.Created{})
			return nil
		},
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Clear expired status messages
	if m.statusMsg != "" && time.Now().After(m.statusExpiry) {
		m.statusMsg = ""
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width == m.width && msg.Height == m.height {
			return m, nil
		}
		m.width, m.height = msg.Width, msg.Height
		m.ctrl.HandleEvent(coordinator.Resized{
			Width:  msg.Width * cellWidth,
			Height: msg.Height * cellHeight,
		})
		return m, nil

	case relayoutMsg:
		m.layoutW, m.layoutH = msg.width, msg.height
		// The coordinator never lays out below its minimum; a terminal
		// smaller than the layout cannot show it.
		m.tooSmall = msg.width > m.width*cellWidth || msg.height > m.height*cellHeight
		return m, nil

	case panelMsg:
		if p, ok := m.panes[msg.kind]; ok {
			p.setSnapshot(msg.snap)
			if msg.snap.Status == panel.StatusFailed && msg.snap.Err != nil {
				logger.Debug("%s panel failed: %v", msg.kind, msg.snap.Err)
			}
		}
		return m, nil

	case openResultMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("Failed to open %s: %v", msg.path, msg.err))
		} else {
			m.setStatus(fmt.Sprintf("Opened %s", msg.path))
		}
		return m, nil

	case destroyMsg:
		m.destroyed = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateNormal(msg)
	}

	return m, nil
}

func (m *Model) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.activePane()
	page := m.contentHeight()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if !m.ctrl.HandleEvent(coordinator.Closing{}) {
			// Nobody left to route the close; quit directly.
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Switch):
		if m.active == panel.Local {
			m.active = panel.Remote
		} else {
			m.active = panel.Local
		}

	case key.Matches(msg, m.keys.Up):
		p.move(-1)
	case key.Matches(msg, m.keys.Down):
		p.move(1)
	case key.Matches(msg, m.keys.PageUp):
		p.move(-page)
	case key.Matches(msg, m.keys.PageDown):
		p.move(page)

	case key.Matches(msg, m.keys.Open):
		m.open(p)

	case key.Matches(msg, m.keys.Parent):
		m.parent(p)

	case key.Matches(msg, m.keys.Refresh):
		m.refresh(p)

	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(p.filter)
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()

	case key.Matches(msg, m.keys.Copy):
		if path, ok := m.selectedPath(p); ok {
			m.copyPath(path)
		}

	case key.Matches(msg, m.keys.OpenFile):
		return m, m.openLocalFile(p)
	}

	return m, nil
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.activePane()

	switch msg.Type {
	case tea.KeyEsc:
		m.filtering = false
		m.filterInput.Blur()
		m.filterInput.SetValue("")
		p.setFilter("")
		return m, nil
	case tea.KeyEnter:
		// Keep the filter, return to navigation
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		if msg.Type == tea.KeyUp {
			p.move(-1)
		} else {
			p.move(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	if v := m.filterInput.Value(); v != p.filter {
		p.setFilter(v)
	}
	return m, cmd
}

// open descends into the selected drive or directory.
func (m *Model) open(p *pane) {
	r, ok := p.selected()
	if !ok || !r.isDir() {
		return
	}
	path, _ := m.selectedPath(p)
	if !m.ctrl.RequestDirectoryList(p.kind, path) {
		m.setStatus("Browser is shutting down")
	}
}

// parent lists the directory above the current one, or the drives from a
// root.
func (m *Model) parent(p *pane) {
	if p.snap.Listing != panel.ListingDirectory {
		return
	}
	if up, ok := parentPath(p.snap.Path); ok {
		m.ctrl.RequestDirectoryList(p.kind, up)
		return
	}
	m.ctrl.RequestDriveList(p.kind)
}

func (m *Model) refresh(p *pane) {
	if p.snap.Listing == panel.ListingDirectory {
		m.ctrl.RequestDirectoryList(p.kind, p.snap.Path)
		return
	}
	m.ctrl.RequestDriveList(p.kind)
}

// selectedPath is the full path of the selected row.
func (m *Model) selectedPath(p *pane) (string, bool) {
	r, ok := p.selected()
	if !ok {
		return "", false
	}
	if r.drive != nil {
		return r.path, true
	}
	return joinPath(p.snap.Path, r.name), true
}

func (m *Model) setStatus(msg string) {
	m.statusMsg = msg
	m.statusExpiry = time.Now().Add(statusTimeout)
}

func (m *Model) paneTitle(kind panel.Kind) string {
	if kind == panel.Remote {
		if m.peerHost != "" {
			return fmt.Sprintf("Remote (%s)", m.peerHost)
		}
		return "Remote"
	}
	return "Local"
}
