package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/skratchdot/open-golang/open"

	"github.com/LFroesch/ferry/internal/panel"
)

// Replaced in tests.
var (
	writeClipboard = clipboard.WriteAll
	startOpener    = open.Start
)

type openResultMsg struct {
	path string
	err  error
}

func (m *Model) copyPath(path string) {
	if err := writeClipboard(path); err != nil {
		m.setStatus(fmt.Sprintf("Failed to copy: %v", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied: %s", path))
}

// openLocalFile hands the selected local file to the system opener.
// Remote files are not on this machine.
func (m *Model) openLocalFile(p *pane) tea.Cmd {
	if p.kind != panel.Local {
		m.setStatus("Only local files can be opened")
		return nil
	}
	r, ok := p.selected()
	if !ok || r.entry == nil || r.isDir() {
		return nil
	}
	path, _ := m.selectedPath(p)
	return func() tea.Msg {
		return openResultMsg{path: path, err: startOpener(path)}
	}
}

// fileIcon returns an emoji icon for a file based on its extension
func fileIcon(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".go":
		return "🐹"
	case ".js", ".ts", ".jsx", ".tsx":
		return "📜"
	case ".py":
		return "🐍"
	case ".rs":
		return "🦀"
	case ".html", ".htm":
		return "🌐"
	case ".json", ".yaml", ".yml", ".toml":
		return "📋"
	case ".md", ".markdown":
		return "📝"
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico":
		return "🖼️"
	case ".mp4", ".avi", ".mov", ".mkv":
		return "🎬"
	case ".mp3", ".wav", ".flac", ".ogg":
		return "🎵"
	case ".zip", ".tar", ".gz", ".rar", ".7z":
		return "📦"
	case ".pdf":
		return "📕"
	case ".sh", ".bash", ".zsh":
		return "🖥️"
	default:
		return "📄"
	}
}

func driveIcon(kind panel.DriveKind) string {
	switch kind {
	case panel.DriveHome:
		return "🏠"
	case panel.DriveDesktop:
		return "🖥️"
	case panel.DriveRemovable:
		return "🔌"
	case panel.DriveOptical, panel.DriveCdRom:
		return "💿"
	case panel.DriveNetwork:
		return "🌐"
	case panel.DriveRAM:
		return "⚡"
	default:
		return "💽"
	}
}

func rowIcon(r row) string {
	switch {
	case r.drive != nil:
		return driveIcon(r.drive.Kind)
	case r.isDir():
		return "📁"
	default:
		return fileIcon(r.name)
	}
}

// formatSize renders a size colored by magnitude
func formatSize(size uint64) string {
	const (
		KB    = 1024
		MB    = 1024 * KB
		MB100 = 100 * MB
	)

	var style lipgloss.Style
	switch {
	case size < KB:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	case size < MB:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	case size < MB100:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	}
	return style.Render(humanize.IBytes(size))
}

// highlightMatches highlights matched runes in text
func highlightMatches(text string, matches []int) string {
	if len(matches) == 0 {
		return text
	}

	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("226")).
		Bold(true)

	matchMap := make(map[int]bool, len(matches))
	for _, idx := range matches {
		matchMap[idx] = true
	}

	var result strings.Builder
	for i, r := range []rune(text) {
		if matchMap[i] {
			result.WriteString(highlightStyle.Render(string(r)))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// truncate shortens s to width cells with an ellipsis
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		if lipgloss.Width(b.String()+string(r)+"...") > width {
			break
		}
		b.WriteRune(r)
	}
	return b.String() + "..."
}
