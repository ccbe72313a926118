// Package tui runs the player controller inside a terminal surface: the terminal
// is the display, its focus is the visibility signal and key presses are the remote.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/controller"
	"github.com/emeltv/emel/log"
	"github.com/emeltv/emel/loop"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	URL        string
	Rect       avplay.Rect
	StartDelay time.Duration
}

// Run drives player until the user exits or ctx is done. The player is released on return.
func Run(ctx context.Context, player avplay.Player, options *Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d := &dispatcher{pump: loop.New()}
	b := newModel(ctx, player, d, controller.Options{
		URL:        options.URL,
		Rect:       options.Rect,
		StartDelay: options.StartDelay,
	})

	program := tea.NewProgram(b, tea.WithAltScreen(), tea.WithReportFocus(), tea.WithContext(ctx))
	d.send = program.Send

	go func() {
		_ = d.pump.Run(ctx)
	}()

	_, err := program.Run()
	d.pump.Stop()

	// the event loop is gone, so releasing here cannot race a handler
	b.ctrl.Cleanup()

	if errors.Is(err, tea.ErrProgramKilled) {
		log.Info("terminal session cancelled")
		return nil
	}
	return err
}

// newModel builds the bubble and its controller.
func newModel(ctx context.Context, player avplay.Player, dispatch controller.Dispatcher, opts controller.Options) *bubble {
	b := newBubble(ctx)
	b.ctrl = controller.New(player, b, b, dispatch, opts)
	return b
}
