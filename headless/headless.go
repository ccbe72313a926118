// Package headless runs the player controller without a terminal UI. Process
// signals stand in for the remote control and for visibility changes.
package headless

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/controller"
	"github.com/emeltv/emel/log"
	"github.com/emeltv/emel/loop"
	"github.com/samber/lo"
)

// Options configures a headless run.
type Options struct {
	URL        string
	Rect       avplay.Rect
	StartDelay time.Duration
}

// Run plays until a back signal arrives or ctx is done. The player is released on return.
func Run(ctx context.Context, player avplay.Player, options *Options) error {
	signals := make(chan os.Signal, 4)
	signal.Notify(signals, handled()...)
	defer signal.Stop(signals)

	return run(ctx, player, signals, controller.Options{
		URL:        options.URL,
		Rect:       options.Rect,
		StartDelay: options.StartDelay,
	})
}

func run(ctx context.Context, player avplay.Player, signals <-chan os.Signal, opts controller.Options) error {
	l := loop.New()
	env := &environment{loop: l}
	ctrl := controller.New(player, env, env, l, opts)

	var initErr error
	l.Dispatch(func() {
		if err := ctrl.Initialize(ctx); err != nil {
			initErr = err
			l.Stop()
		}
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case sig := <-signals:
				l.Dispatch(func() { env.handle(sig) })
			case <-done:
				return
			}
		}
	}()

	err := l.Run(ctx)

	// the loop has returned, nothing else touches the controller now
	ctrl.Cleanup()

	if initErr != nil {
		return initErr
	}
	if ctx.Err() != nil {
		log.Info("headless session cancelled")
		return nil
	}
	return err
}

// environment is the signal-driven surface and application service.
type environment struct {
	loop *loop.Loop

	onKey        func(code int)
	onVisibility func(hidden bool)
}

func (e *environment) CreatePlayerHost() error {
	log.Debug("headless surface attached")
	return nil
}

func (e *environment) OnKeyDown(handler func(code int)) {
	e.onKey = handler
}

func (e *environment) OnVisibilityChange(handler func(hidden bool)) {
	e.onVisibility = handler
}

// Exit stops the event loop once the current handler returns.
func (e *environment) Exit() {
	e.loop.Stop()
}

func (e *environment) handle(sig os.Signal) {
	entry := log.With(log.Fields{"signal": sig.String()})

	if code, ok := keys[sig]; ok && e.onKey != nil {
		entry.Infof("signal mapped to key %s", controller.KeyName(code))
		e.onKey(code)
		return
	}

	if hidden, ok := visibility[sig]; ok && e.onVisibility != nil {
		entry.Infof("signal mapped to %s", lo.Ternary(hidden, "hidden", "visible"))
		e.onVisibility(hidden)
		return
	}

	entry.Warn("unhandled signal")
}

func handled() []os.Signal {
	return append(lo.Keys(keys), lo.Keys(visibility)...)
}
