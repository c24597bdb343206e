package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/LFroesch/ferry/internal/coordinator"
	"github.com/LFroesch/ferry/internal/panel"
	"github.com/LFroesch/ferry/internal/search"
)

// Controller is the slice of the coordinator the model drives.
type Controller interface {
	HandleEvent(ev coordinator.Event) bool
	RequestDriveList(kind panel.Kind) bool
	RequestDirectoryList(kind panel.Kind, path string) bool
}

// Terminal cells are converted to logical units before they reach the
// coordinator, which owns the minimum viewport.
const (
	cellWidth  = 8
	cellHeight = 16
)

const (
	uiOverhead    = 6 // header (1) + status (1) + borders (2) + pane title (1) + filter (1)
	statusTimeout = 3 * time.Second
)

// Options configure the model.
type Options struct {
	PeerHost string // shown in the remote pane title
}

// Model is the Bubble Tea model: two panes fed by coordinator snapshots.
type Model struct {
	ctrl  Controller
	panes map[panel.Kind]*pane

	active   panel.Kind
	peerHost string

	width, height int // terminal cells
	layoutW       int // logical units from the last relayout
	layoutH       int
	tooSmall      bool

	filtering   bool
	filterInput textinput.Model

	keys         keyMap
	statusMsg    string
	statusExpiry time.Time
	destroyed    bool
}

// row is one selectable line of a pane.
type row struct {
	name  string
	path  string // drives only
	drive *panel.DriveItem
	entry *panel.DirectoryItem
}

func (r row) isDir() bool {
	return r.drive != nil || (r.entry != nil && r.entry.IsDir())
}

type pane struct {
	kind    panel.Kind
	snap    panel.Snapshot
	rows    []row
	visible []int   // indexes into rows after filtering
	matches [][]int // highlight positions, parallel to visible
	filter  string
	cursor  int
	offset  int
}

// NewModel returns a model that drives ctrl.
func NewModel(ctrl Controller, opts Options) *Model {
	ti := textinput.New()
	ti.Placeholder = "Type to filter, ' for exact..."
	ti.Prompt = "/ "
	ti.CharLimit = 256
	ti.Width = 40

	m := &Model{
		ctrl:        ctrl,
		panes:       make(map[panel.Kind]*pane, len(panel.Kinds)),
		active:      panel.Local,
		peerHost:    opts.PeerHost,
		filterInput: ti,
		keys:        defaultKeyMap(),
	}
	for _, kind := range panel.Kinds {
		m.panes[kind] = &pane{kind: kind}
	}
	return m
}

func (m *Model) activePane() *pane {
	return m.panes[m.active]
}

// setSnapshot replaces the pane's rows, keeping the cursor on the same
// name when the listing did not change target.
func (p *pane) setSnapshot(snap panel.Snapshot) {
	sameTarget := snap.Listing == p.snap.Listing && snap.Path == p.snap.Path
	var selected string
	if r, ok := p.selected(); ok {
		selected = r.name
	}

	p.snap = snap
	p.rows = p.rows[:0]
	switch snap.Listing {
	case panel.ListingDrives:
		for i := range snap.Drives {
			d := &snap.Drives[i]
			name := d.DisplayName
			if name == "" {
				name = d.Path
			}
			p.rows = append(p.rows, row{name: name, path: d.Path, drive: d})
		}
	case panel.ListingDirectory:
		for i := range snap.Entries {
			e := &snap.Entries[i]
			p.rows = append(p.rows, row{name: e.Name, entry: e})
		}
	}

	if !sameTarget {
		p.filter = ""
		p.cursor, p.offset = 0, 0
		selected = ""
	}
	p.applyFilter()

	if selected != "" {
		for i, idx := range p.visible {
			if p.rows[idx].name == selected {
				p.cursor = i
				break
			}
		}
	}
	p.clampCursor()
}

func (p *pane) setFilter(query string) {
	p.filter = query
	p.cursor, p.offset = 0, 0
	p.applyFilter()
}

func (p *pane) applyFilter() {
	p.visible = p.visible[:0]
	p.matches = p.matches[:0]

	if p.filter == "" {
		for i := range p.rows {
			p.visible = append(p.visible, i)
			p.matches = append(p.matches, nil)
		}
		return
	}

	names := make([]string, len(p.rows))
	for i, r := range p.rows {
		names[i] = r.name
	}
	for _, match := range search.Filter(p.filter, names) {
		p.visible = append(p.visible, match.Index)
		p.matches = append(p.matches, match.MatchedIndexes)
	}
}

func (p *pane) selected() (row, bool) {
	if p.cursor < 0 || p.cursor >= len(p.visible) {
		return row{}, false
	}
	return p.rows[p.visible[p.cursor]], true
}

func (p *pane) move(delta int) {
	p.cursor += delta
	p.clampCursor()
}

func (p *pane) clampCursor() {
	if p.cursor >= len(p.visible) {
		p.cursor = len(p.visible) - 1
	}
	if p.cursor < 0 {
		p.cursor = 0
	}
}

// scrollTo keeps the cursor inside a window of height rows.
func (p *pane) scrollTo(height int) {
	if height < 1 {
		height = 1
	}
	if p.cursor < p.offset {
		p.offset = p.cursor
	}
	if p.cursor >= p.offset+height {
		p.offset = p.cursor - height + 1
	}
	maxOffset := len(p.visible) - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if p.offset > maxOffset {
		p.offset = maxOffset
	}
}

// contentHeight returns the rows available for entries in each pane.
func (m *Model) contentHeight() int {
	h := m.height - uiOverhead
	if h < 1 {
		h = 1
	}
	return h
}
