// Package tui is the terminal presentation layer: a Bubble Tea program
// showing the local and remote panels side by side.
package tui

import (
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/LFroesch/ferry/internal/panel"
)

// ErrNotBound is returned by Init when no program was bound.
var ErrNotBound = errors.New("tui: presenter has no program")

// Presenter forwards coordinator callbacks into a running program as
// messages. Sends block until the program's event loop runs and are dropped
// once it has exited, so the model sends Created from its Init command.
type Presenter struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewPresenter returns an unbound Presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

// Bind attaches the program messages are sent to.
func (p *Presenter) Bind(program *tea.Program) {
	p.mu.Lock()
	p.program = program
	p.mu.Unlock()
}

func (p *Presenter) bound() *tea.Program {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.program
}

func (p *Presenter) send(msg tea.Msg) {
	if program := p.bound(); program != nil {
		program.Send(msg)
	}
}

// Init fails when there is nothing to present on.
func (p *Presenter) Init() error {
	if p.bound() == nil {
		return ErrNotBound
	}
	return nil
}

func (p *Presenter) Relayout(width, height int) {
	p.send(relayoutMsg{width: width, height: height})
}

func (p *Presenter) PanelChanged(kind panel.Kind, snap panel.Snapshot) {
	p.send(panelMsg{kind: kind, snap: snap})
}

func (p *Presenter) Destroy() {
	p.send(destroyMsg{})
}

type relayoutMsg struct{ width, height int }

type panelMsg struct {
	kind panel.Kind
	snap panel.Snapshot
}

type destroyMsg struct{}
