package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/avplay/avplaytest"
	. "github.com/smartystreets/goconvey/convey"
)

const streamURL = "https://emelplayout.ddnsguru.com/live/tv_emel_test101.m3u8"

// journal collects the order of player calls and application exits.
type journal struct {
	player *avplaytest.Player
	events []string
}

type fakeSurface struct {
	key        func(int)
	visibility func(bool)
	hosts      int
	hostErr    error
}

func (s *fakeSurface) CreatePlayerHost() error {
	s.hosts++
	return s.hostErr
}
func (s *fakeSurface) OnKeyDown(h func(int))           { s.key = h }
func (s *fakeSurface) OnVisibilityChange(h func(bool)) { s.visibility = h }

type fakeApp struct {
	j     *journal
	exits int
	// playerState is the state observed at the moment Exit ran.
	playerState avplay.State
}

func (a *fakeApp) Exit() {
	a.exits++
	a.playerState = a.j.player.State()
	a.j.events = append(a.j.player.Calls(), "exit")
}

type fixture struct {
	player    *avplaytest.Player
	surface   *fakeSurface
	app       *fakeApp
	ctrl      *Controller
	scheduled []func()
	delays    []time.Duration
}

func newFixture() *fixture {
	f := &fixture{
		player:  avplaytest.New(),
		surface: &fakeSurface{},
	}
	f.app = &fakeApp{j: &journal{player: f.player}}
	f.ctrl = New(f.player, f.surface, f.app, Immediate, Options{
		URL:        streamURL,
		Rect:       avplay.Rect{Width: 1920, Height: 1080},
		StartDelay: 100 * time.Millisecond,
		Schedule: func(d time.Duration, fn func()) {
			f.delays = append(f.delays, d)
			f.scheduled = append(f.scheduled, fn)
		},
	})
	return f
}

// fireTimers runs every scheduled callback, as if the delay elapsed.
func (f *fixture) fireTimers() {
	pending := f.scheduled
	f.scheduled = nil
	for _, fn := range pending {
		fn()
	}
}

// playing drives the fixture to a playing session.
func (f *fixture) playing() {
	f.ctrl.StartPlayback()
	f.player.CompletePrepare()
	f.player.Reset()
}

func TestInitialize(t *testing.T) {
	Convey("Given a fresh controller", t, func() {
		f := newFixture()

		Convey("Initialize registers handlers, creates the host and defers the start", func() {
			So(f.ctrl.Initialize(context.Background()), ShouldBeNil)
			So(f.surface.key, ShouldNotBeNil)
			So(f.surface.visibility, ShouldNotBeNil)
			So(f.surface.hosts, ShouldEqual, 1)
			So(f.delays, ShouldResemble, []time.Duration{100 * time.Millisecond})
			So(f.player.Calls(), ShouldBeEmpty)

			Convey("After the delay the stream is opened, positioned and prepared", func() {
				f.fireTimers()
				So(f.player.Calls(), ShouldResemble, []string{
					avplaytest.CallOpen,
					avplaytest.CallSetListener,
					avplaytest.CallSetDisplayRect,
					avplaytest.CallPrepare,
				})
				So(f.player.URL(), ShouldEqual, streamURL)
				So(f.player.Rect(), ShouldResemble, avplay.Rect{X: 0, Y: 0, Width: 1920, Height: 1080})

				Convey("A successful prepare starts playback", func() {
					So(f.player.CompletePrepare(), ShouldBeTrue)
					So(f.player.Count(avplaytest.CallPlay), ShouldEqual, 1)
					So(f.player.State(), ShouldEqual, avplay.StatePlaying)
				})

				Convey("A failed prepare is recorded and not retried", func() {
					So(f.player.FailPrepare(errors.New("manifest 404")), ShouldBeTrue)
					So(f.player.Count(avplaytest.CallPlay), ShouldEqual, 0)
					So(f.player.Count(avplaytest.CallOpen), ShouldEqual, 1)
					So(f.ctrl.LastError(), ShouldNotBeNil)
					So(f.ctrl.LastError().Error(), ShouldContainSubstring, "manifest 404")
				})
			})
		})

		Convey("Initialize runs exactly once", func() {
			So(f.ctrl.Initialize(context.Background()), ShouldBeNil)
			So(errors.Is(f.ctrl.Initialize(context.Background()), ErrAlreadyInitialized), ShouldBeTrue)
			So(f.surface.hosts, ShouldEqual, 1)
			So(len(f.scheduled), ShouldEqual, 1)
		})

		Convey("A cancelled context skips the deferred start", func() {
			ctx, cancel := context.WithCancel(context.Background())
			So(f.ctrl.Initialize(ctx), ShouldBeNil)
			cancel()
			f.fireTimers()
			So(f.player.Calls(), ShouldBeEmpty)
		})

		Convey("Hiding before the delay elapses keeps the stream closed", func() {
			So(f.ctrl.Initialize(context.Background()), ShouldBeNil)
			f.surface.visibility(true)
			f.fireTimers()
			So(f.player.Count(avplaytest.CallOpen), ShouldEqual, 0)
			So(f.ctrl.Hidden(), ShouldBeTrue)

			Convey("and the next visible transition starts the only session", func() {
				f.surface.visibility(false)
				So(f.player.Count(avplaytest.CallOpen), ShouldEqual, 1)
				So(f.player.Count(avplaytest.CallPrepare), ShouldEqual, 1)
				So(f.ctrl.Hidden(), ShouldBeFalse)
			})
		})

		Convey("Showing before the delay elapses starts once", func() {
			So(f.ctrl.Initialize(context.Background()), ShouldBeNil)
			f.surface.visibility(true)
			f.surface.visibility(false)
			f.fireTimers()
			So(f.player.Count(avplaytest.CallOpen), ShouldEqual, 1)
			So(f.player.MaxDecoders, ShouldEqual, 1)
		})

		Convey("A host failure is reported", func() {
			f.surface.hostErr = errors.New("no container")
			So(f.ctrl.Initialize(context.Background()), ShouldNotBeNil)
			So(f.scheduled, ShouldBeEmpty)
		})
	})
}

func TestStartPlayback(t *testing.T) {
	Convey("Given a controller", t, func() {
		f := newFixture()

		Convey("An open failure ends the attempt", func() {
			f.player.OpenErr = errors.New("decoder busy")
			f.ctrl.StartPlayback()
			So(f.player.Calls(), ShouldResemble, []string{avplaytest.CallOpen})
			So(f.ctrl.LastError(), ShouldNotBeNil)
			So(f.player.Pending(), ShouldEqual, 0)
		})

		Convey("A held decoder is released before re-opening", func() {
			f.playing()
			f.ctrl.StartPlayback()
			So(f.player.Calls()[:3], ShouldResemble, []string{
				avplaytest.CallStop,
				avplaytest.CallClose,
				avplaytest.CallOpen,
			})
			So(f.player.MaxDecoders, ShouldEqual, 1)
		})

		Convey("Runtime errors are recorded only", func() {
			f.playing()
			f.player.FireError("PLAYER_ERROR_CONNECTION_FAILED")
			So(f.ctrl.LastError(), ShouldNotBeNil)
			So(f.player.State(), ShouldEqual, avplay.StatePlaying)
			So(f.player.Calls(), ShouldBeEmpty)
		})

		Convey("Buffering events change nothing", func() {
			f.playing()
			f.player.FireBufferingStart()
			f.player.FireBufferingComplete()
			So(f.player.Calls(), ShouldBeEmpty)
		})

		Convey("Stream completion cleans up", func() {
			f.playing()
			f.player.FireStreamCompleted()
			So(f.player.Calls(), ShouldResemble, []string{avplaytest.CallStop, avplaytest.CallClose})
			So(f.player.State(), ShouldEqual, avplay.StateNone)
		})
	})
}

func TestCleanup(t *testing.T) {
	Convey("Cleanup is idempotent from every reachable state", t, func() {
		for _, state := range []avplay.State{
			avplay.StateNone,
			avplay.StateIdle,
			avplay.StateReady,
			avplay.StatePlaying,
			avplay.StatePaused,
		} {
			Convey("state="+string(state), func() {
				f := newFixture()
				f.player.SetState(state)

				f.ctrl.Cleanup()
				afterFirst := f.player.State()
				calls := len(f.player.Calls())

				f.ctrl.Cleanup()
				So(f.player.State(), ShouldEqual, afterFirst)
				So(afterFirst.Released(), ShouldBeTrue)
				So(len(f.player.Calls()), ShouldEqual, calls)

				if state.Released() {
					So(calls, ShouldEqual, 0)
				} else {
					So(f.player.Calls(), ShouldResemble, []string{avplaytest.CallStop, avplaytest.CallClose})
					So(afterFirst, ShouldEqual, avplay.StateNone)
				}
			})
		}
	})
}

func TestHandleKey(t *testing.T) {
	Convey("Given a controller with a session", t, func() {
		f := newFixture()

		Convey("Play keys resume only from PAUSED", func() {
			for _, code := range []int{KeyPlay, KeyPlayPause} {
				for _, state := range []avplay.State{
					avplay.StateNone,
					avplay.StateIdle,
					avplay.StateReady,
					avplay.StatePlaying,
				} {
					f.player.SetState(state)
					f.player.Reset()
					f.ctrl.HandleKey(code)
					So(f.player.Calls(), ShouldBeEmpty)
					So(f.player.State(), ShouldEqual, state)
				}

				f.player.SetState(avplay.StatePaused)
				f.player.Reset()
				f.ctrl.HandleKey(code)
				So(f.player.Calls(), ShouldResemble, []string{avplaytest.CallPlay})
				So(f.player.State(), ShouldEqual, avplay.StatePlaying)
			}
		})

		Convey("Pause pauses", func() {
			f.playing()
			f.ctrl.HandleKey(KeyPause)
			So(f.player.State(), ShouldEqual, avplay.StatePaused)
		})

		Convey("Pause outside playback is rejected by the player and recorded", func() {
			f.ctrl.HandleKey(KeyPause)
			So(f.player.Calls(), ShouldResemble, []string{avplaytest.CallPause})
			So(errors.Is(f.ctrl.LastError(), avplay.ErrInvalidState), ShouldBeTrue)
		})

		Convey("Stop cleans up", func() {
			f.playing()
			f.ctrl.HandleKey(KeyStop)
			So(f.player.State(), ShouldEqual, avplay.StateNone)
			So(f.app.exits, ShouldEqual, 0)
		})

		Convey("Back releases the decoder before exiting", func() {
			f.playing()
			f.ctrl.HandleKey(KeyBack)
			So(f.app.exits, ShouldEqual, 1)
			So(f.app.playerState, ShouldEqual, avplay.StateNone)
			So(f.app.j.events, ShouldResemble, []string{avplaytest.CallStop, avplaytest.CallClose, "exit"})
		})

		Convey("Back with nothing open still exits", func() {
			f.ctrl.HandleKey(KeyBack)
			So(f.app.exits, ShouldEqual, 1)
			So(f.player.Calls(), ShouldBeEmpty)
		})

		Convey("Unmapped keys are ignored", func() {
			f.playing()
			f.ctrl.HandleKey(37)
			So(f.player.Calls(), ShouldBeEmpty)
		})
	})
}

func TestHandleVisibility(t *testing.T) {
	Convey("Given a playing controller registered on its surface", t, func() {
		f := newFixture()
		So(f.ctrl.Initialize(context.Background()), ShouldBeNil)
		f.fireTimers()
		f.player.CompletePrepare()
		f.player.Reset()

		Convey("Hiding cleans up once and opens nothing", func() {
			f.surface.visibility(true)
			So(f.player.Count(avplaytest.CallStop), ShouldEqual, 1)
			So(f.player.Count(avplaytest.CallClose), ShouldEqual, 1)
			So(f.player.Count(avplaytest.CallOpen), ShouldEqual, 0)
			So(f.player.State(), ShouldEqual, avplay.StateNone)

			Convey("Becoming visible starts exactly one fresh session", func() {
				f.player.Reset()
				f.surface.visibility(false)
				So(f.player.Calls(), ShouldResemble, []string{
					avplaytest.CallOpen,
					avplaytest.CallSetListener,
					avplaytest.CallSetDisplayRect,
					avplaytest.CallPrepare,
				})
				f.player.CompletePrepare()
				So(f.player.Count(avplaytest.CallPlay), ShouldEqual, 1)
				So(f.player.State(), ShouldEqual, avplay.StatePlaying)
			})
		})

		Convey("Hidden then visible in quick succession never holds two decoders", func() {
			f.surface.visibility(true)
			f.surface.visibility(false)

			calls := f.player.Calls()
			So(calls, ShouldResemble, []string{
				avplaytest.CallStop,
				avplaytest.CallClose,
				avplaytest.CallOpen,
				avplaytest.CallSetListener,
				avplaytest.CallSetDisplayRect,
				avplaytest.CallPrepare,
			})
			So(f.player.MaxDecoders, ShouldEqual, 1)
			So(f.player.Decoders(), ShouldEqual, 1)
		})

		Convey("A prepare outstanding across hide and show plays only once", func() {
			f.surface.visibility(true)
			f.surface.visibility(false)
			f.surface.visibility(true)
			f.surface.visibility(false)
			f.player.Reset()

			So(f.player.Pending(), ShouldEqual, 2)
			f.player.CompletePrepare()
			f.player.CompletePrepare()
			So(f.player.Count(avplaytest.CallPlay), ShouldEqual, 1)
			So(f.player.MaxDecoders, ShouldEqual, 1)
		})

		Convey("A prepare resolving after hide does not resurrect playback", func() {
			f.surface.visibility(true)
			f.surface.visibility(false)
			f.surface.visibility(true)
			f.player.Reset()

			f.player.CompletePrepare()
			So(f.player.Calls(), ShouldBeEmpty)
			So(f.player.State(), ShouldEqual, avplay.StateNone)
		})
	})
}

func TestAccessors(t *testing.T) {
	Convey("Accessors expose configuration", t, func() {
		f := newFixture()
		So(f.ctrl.URL(), ShouldEqual, streamURL)
		So(f.ctrl.Rect().Width, ShouldEqual, 1920)
		So(f.ctrl.State(), ShouldEqual, avplay.StateNone)
		So(KeyName(KeyBack), ShouldEqual, "back")
		So(KeyName(1), ShouldEqual, "unmapped")
	})
}
