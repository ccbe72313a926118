package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/emeltv/emel/loop"
)

// dispatchMsg carries a function to run on the bubbletea event loop.
type dispatchMsg struct {
	f func()
}

// dispatcher posts functions into the running program. Sends go through a pump
// goroutine so Dispatch never blocks, even when called from the event loop itself.
type dispatcher struct {
	pump *loop.Loop
	send func(tea.Msg)
}

func (d *dispatcher) Dispatch(f func()) {
	d.pump.Dispatch(func() {
		d.send(dispatchMsg{f: f})
	})
}
