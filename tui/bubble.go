package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/emeltv/emel/controller"
	"github.com/emeltv/emel/internal/ui"
)

// bubble is the bubbletea model. It is the controller's display surface and
// application service; all its handlers run on the bubbletea event loop.
type bubble struct {
	ctx  context.Context
	ctrl *controller.Controller

	keymap   *keymap
	helpC    help.Model
	spinnerC spinner.Model
	notifier *ui.Model

	onKey        func(code int)
	onVisibility func(hidden bool)

	hostReady   bool
	initialized bool
	exiting     bool
	hidden      bool
	initErr     error

	width, height int
}

func newBubble(ctx context.Context) *bubble {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return &bubble{
		ctx:      ctx,
		keymap:   newKeymap(),
		helpC:    help.New(),
		spinnerC: s,
		notifier: &ui.Model{},
	}
}

// CreatePlayerHost marks the video area as attached; the view reserves it from now on.
func (b *bubble) CreatePlayerHost() error {
	b.hostReady = true
	return nil
}

func (b *bubble) OnKeyDown(handler func(code int)) {
	b.onKey = handler
}

func (b *bubble) OnVisibilityChange(handler func(hidden bool)) {
	b.onVisibility = handler
}

// Exit asks the program to quit once the current message is handled.
func (b *bubble) Exit() {
	b.exiting = true
}

var (
	_ controller.Surface     = (*bubble)(nil)
	_ controller.Application = (*bubble)(nil)
)
