// Package controller implements the playback lifecycle controller: it drives a single
// avplay.Player through open, prepare, play, stop and close, and keeps it in step with
// remote-control input and surface visibility.
//
// All methods are meant to run on one event loop. Player callbacks are re-posted
// through the Dispatcher before they touch controller state.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/log"
)

// ErrAlreadyInitialized is returned by a second call to Initialize.
var ErrAlreadyInitialized = errors.New("controller already initialized")

// Options configures a Controller.
type Options struct {
	// URL of the stream to play.
	URL string

	// Rect is the display rectangle handed to the player.
	Rect avplay.Rect

	// StartDelay defers the first StartPlayback after Initialize.
	StartDelay time.Duration

	// Schedule runs f once after d. Defaults to time.AfterFunc.
	Schedule func(d time.Duration, f func())
}

// Controller owns the stream configuration and the only handle to the player.
type Controller struct {
	player   avplay.Player
	app      Application
	surface  Surface
	dispatch Dispatcher

	url        string
	rect       avplay.Rect
	startDelay time.Duration
	schedule   func(time.Duration, func())

	initialized bool
	// startPending is set until the delayed first start runs or a visibility
	// change takes over the session.
	startPending bool
	hidden       bool

	// session advances on every start and clean-up; callbacks carrying an older
	// value belong to a released decoder and are dropped.
	session uint64
	lastErr error
}

// New builds a controller. It does not touch the player until Initialize.
func New(player avplay.Player, surface Surface, app Application, dispatch Dispatcher, opts Options) *Controller {
	schedule := opts.Schedule
	if schedule == nil {
		schedule = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}
	if dispatch == nil {
		dispatch = Immediate
	}

	return &Controller{
		player:     player,
		app:        app,
		surface:    surface,
		dispatch:   dispatch,
		url:        opts.URL,
		rect:       opts.Rect,
		startDelay: opts.StartDelay,
		schedule:   schedule,
	}
}

// Initialize registers the key and visibility handlers, creates the player host and
// schedules the first playback attempt. The scheduled start is skipped once ctx is done.
func (c *Controller) Initialize(ctx context.Context) error {
	if c.initialized {
		return ErrAlreadyInitialized
	}
	c.initialized = true

	log.Info("controller initialized")

	c.surface.OnKeyDown(c.HandleKey)
	c.surface.OnVisibilityChange(c.HandleVisibility)

	if err := c.surface.CreatePlayerHost(); err != nil {
		return fmt.Errorf("create player host: %w", err)
	}

	c.startPending = true
	c.schedule(c.startDelay, func() {
		c.dispatch.Dispatch(func() {
			if !c.startPending || ctx.Err() != nil {
				return
			}
			c.startPending = false
			c.StartPlayback()
		})
	})

	return nil
}

// StartPlayback opens the stream, installs the listener set, positions the output and
// requests an asynchronous prepare; a successful prepare starts playback.
// Failures are logged and end the attempt. There is no retry.
func (c *Controller) StartPlayback() {
	// a decoder still held from an earlier session must go before re-opening
	if !c.player.State().Released() {
		log.Warn("player still held, releasing before re-open")
		c.Cleanup()
	}

	c.session++
	session := c.session
	c.lastErr = nil

	log.With(log.Fields{"url": c.url, "session": session}).Info("starting playback")

	if err := c.open(session); err != nil {
		c.fail(fmt.Errorf("start playback: %w", err))
		return
	}

	c.player.PrepareAsync(
		func() {
			c.dispatch.Dispatch(func() { c.prepared(session) })
		},
		func(err error) {
			c.dispatch.Dispatch(func() { c.prepareFailed(session, err) })
		},
	)
}

func (c *Controller) open(session uint64) error {
	if err := c.player.Open(c.url); err != nil {
		return fmt.Errorf("open %s: %w", c.url, err)
	}

	c.player.SetListener(c.listener(session))

	if err := c.player.SetDisplayRect(c.rect); err != nil {
		return fmt.Errorf("set display rect: %w", err)
	}

	return nil
}

func (c *Controller) listener(session uint64) avplay.Listener {
	current := func(f func()) func() {
		return func() {
			c.dispatch.Dispatch(func() {
				if session == c.session {
					f()
				}
			})
		}
	}

	return avplay.Listener{
		OnBufferingStart:    current(func() { log.Info("buffering started") }),
		OnBufferingComplete: current(func() { log.Info("buffering complete") }),
		OnStreamCompleted: current(func() {
			log.Info("stream completed")
			c.Cleanup()
		}),
		OnError: func(err error) {
			current(func() { c.fail(fmt.Errorf("player: %w", err)) })()
		},
	}
}

func (c *Controller) prepared(session uint64) {
	if session != c.session {
		log.Debugf("dropping prepare result of session %d", session)
		return
	}

	log.Info("prepare complete, starting playback")
	if err := c.player.Play(); err != nil {
		c.fail(fmt.Errorf("play: %w", err))
	}
}

func (c *Controller) prepareFailed(session uint64, err error) {
	if session != c.session {
		log.Debugf("dropping prepare error of session %d: %v", session, err)
		return
	}
	c.fail(fmt.Errorf("prepare: %w", err))
}

// Cleanup stops and closes the player unless it is already IDLE or NONE.
// Pending callbacks of the released session are invalidated either way.
func (c *Controller) Cleanup() {
	c.session++

	state := c.player.State()
	if state.Released() {
		log.Debugf("player already released (%s)", state)
		return
	}

	log.With(log.Fields{"state": state}).Info("cleaning up player")

	// close runs even when stop fails: it is what frees the decoder
	if err := errors.Join(c.player.Stop(), c.player.Close()); err != nil {
		c.fail(fmt.Errorf("cleanup: %w", err))
		return
	}

	log.Info("player closed")
}

// HandleKey maps a remote-control key code onto a player action.
func (c *Controller) HandleKey(code int) {
	log.Debugf("key %d (%s)", code, KeyName(code))

	switch code {
	case KeyBack:
		c.Cleanup()
		c.app.Exit()
	case KeyPlay, KeyPlayPause:
		if c.player.State() == avplay.StatePaused {
			if err := c.player.Play(); err != nil {
				c.fail(fmt.Errorf("resume: %w", err))
			}
		}
	case KeyPause:
		if err := c.player.Pause(); err != nil {
			c.fail(fmt.Errorf("pause: %w", err))
		}
	case KeyStop:
		c.Cleanup()
	}
}

// HandleVisibility releases the decoder when the surface is hidden and starts a
// fresh session when it becomes visible again. A pending delayed start is dropped
// either way: nothing opens while hidden, and showing starts the session itself.
func (c *Controller) HandleVisibility(hidden bool) {
	c.hidden = hidden
	c.startPending = false

	if hidden {
		log.Info("surface hidden, releasing player")
		c.Cleanup()
		return
	}

	log.Info("surface visible, restarting playback")
	c.StartPlayback()
}

func (c *Controller) fail(err error) {
	c.lastErr = err
	log.Error(err)
}

// State reports the player's current lifecycle status.
func (c *Controller) State() avplay.State {
	return c.player.State()
}

// Hidden reports whether the surface was last reported hidden.
func (c *Controller) Hidden() bool {
	return c.hidden
}

// LastError returns the most recent failure, or nil.
func (c *Controller) LastError() error {
	return c.lastErr
}

// URL returns the configured stream address.
func (c *Controller) URL() string {
	return c.url
}

// Rect returns the configured display rectangle.
func (c *Controller) Rect() avplay.Rect {
	return c.rect
}
