package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/emeltv/emel/controller"
)

// keymap translates terminal keys into remote-control key codes.
type keymap struct {
	back, play, playPause, pause, stop, forceQuit key.Binding
}

func newKeymap() *keymap {
	return &keymap{
		back: key.NewBinding(
			key.WithKeys("esc", "backspace", "q"),
			key.WithHelp("esc", "back"),
		),
		play: key.NewBinding(
			key.WithKeys("enter", "p"),
			key.WithHelp("p", "play"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "play/pause"),
		),
		pause: key.NewBinding(
			key.WithKeys("k"),
			key.WithHelp("k", "pause"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// remoteCode returns the remote-control key code bound to msg.
func (k *keymap) remoteCode(msg tea.KeyMsg) (int, bool) {
	switch {
	case key.Matches(msg, k.back):
		return controller.KeyBack, true
	case key.Matches(msg, k.play):
		return controller.KeyPlay, true
	case key.Matches(msg, k.playPause):
		return controller.KeyPlayPause, true
	case key.Matches(msg, k.pause):
		return controller.KeyPause, true
	case key.Matches(msg, k.stop):
		return controller.KeyStop, true
	}
	return 0, false
}

// bindings lists the remote-control bindings in help order.
func (k *keymap) bindings() []key.Binding {
	return []key.Binding{k.play, k.playPause, k.pause, k.stop, k.back}
}

func (k *keymap) ShortHelp() []key.Binding {
	return k.bindings()
}

func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.bindings(), {k.forceQuit}}
}
