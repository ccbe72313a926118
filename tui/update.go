package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/emeltv/emel/controller"
	"github.com/emeltv/emel/internal/ui"
	"github.com/emeltv/emel/log"
)

func (b *bubble) Init() tea.Cmd {
	return nil
}

func (b *bubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if cmd := b.notifier.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}

	switch msg := msg.(type) {
	case dispatchMsg:
		msg.f()
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		// the first size report means the terminal is ours to draw on
		if !b.initialized {
			b.initialized = true
			if err := b.ctrl.Initialize(b.ctx); err != nil {
				b.initErr = err
				log.Error(err)
			} else if b.hidden && b.onVisibility != nil {
				// focus was lost before the handlers existed
				b.onVisibility(true)
			}
			cmds = append(cmds, b.spinnerC.Tick)
		}
	case tea.FocusMsg:
		b.setHidden(false)
	case tea.BlurMsg:
		b.setHidden(true)
	case tea.KeyMsg:
		if key.Matches(msg, b.keymap.forceQuit) {
			b.ctrl.Cleanup()
			return b, tea.Quit
		}

		if code, ok := b.keymap.remoteCode(msg); ok && b.onKey != nil {
			b.onKey(code)
			cmds = append(cmds, ui.Notify(fmt.Sprintf("%s (%d)", controller.KeyName(code), code)))
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		b.spinnerC, cmd = b.spinnerC.Update(msg)
		cmds = append(cmds, cmd)
	}

	if b.exiting {
		return b, tea.Quit
	}

	return b, tea.Batch(cmds...)
}

func (b *bubble) resize(width, height int) {
	b.width, b.height = width, height
	b.helpC.Width = width
}

// setHidden forwards a visibility transition. Repeated reports of the same state are ignored.
func (b *bubble) setHidden(hidden bool) {
	if hidden == b.hidden {
		return
	}
	b.hidden = hidden

	if b.onVisibility != nil {
		b.onVisibility(hidden)
	}
}
