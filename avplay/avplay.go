// Package avplay describes the media-playback service the lifecycle controller drives.
//
// A Player owns exactly one hardware (or process) decoder. Its lifecycle is
//
//	NONE -> IDLE -> (Open) -> READY -> (PrepareAsync) -> READY
//	READY -> (Play) -> PLAYING <-> PAUSED
//	any open state -> (Stop) -> IDLE -> (Close) -> NONE
//
// Operations invoked in a state that does not allow them fail with ErrInvalidState.
package avplay

import (
	"errors"
	"fmt"
)

// State is the lifecycle status reported by a Player.
type State string

const (
	StateNone    State = "NONE"
	StateIdle    State = "IDLE"
	StateReady   State = "READY"
	StatePlaying State = "PLAYING"
	StatePaused  State = "PAUSED"
)

// Released reports whether the decoder is not held in this state.
func (s State) Released() bool {
	return s == StateNone || s == StateIdle
}

// Rect is the display area, in pixels, the player renders into.
type Rect struct {
	X, Y          int
	Width, Height int
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Validate rejects empty or negative rectangles.
func (r Rect) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("display rect %s: width and height must be positive", r)
	}
	if r.X < 0 || r.Y < 0 {
		return fmt.Errorf("display rect %s: origin must not be negative", r)
	}
	return nil
}

// Listener receives asynchronous player events. Nil members are skipped.
type Listener struct {
	OnBufferingStart    func()
	OnBufferingComplete func()
	OnStreamCompleted   func()
	OnError             func(err error)
}

// Player is the capability set of the platform media-playback service.
type Player interface {
	// Open binds the player to a stream URL and acquires the decoder.
	Open(url string) error

	// SetListener replaces the event listener set.
	SetListener(l Listener)

	// SetDisplayRect positions the video output.
	SetDisplayRect(r Rect) error

	// PrepareAsync buffers the stream. Exactly one of the callbacks runs,
	// never on the calling goroutine's stack.
	PrepareAsync(onSuccess func(), onError func(err error))

	Play() error
	Pause() error
	Stop() error

	// Close releases the decoder.
	Close() error

	// State reports the current lifecycle status.
	State() State
}

// ErrInvalidState is returned when an operation is not allowed in the current state.
var ErrInvalidState = errors.New("invalid player state")

// InvalidState builds an error wrapping ErrInvalidState.
func InvalidState(op string, s State) error {
	return fmt.Errorf("%s in state %s: %w", op, s, ErrInvalidState)
}

// Allowed reports whether op may run while the player is in state s.
func Allowed(op string, s State) bool {
	switch op {
	case "open":
		return s == StateNone || s == StateIdle
	case "setDisplayRect":
		return s == StateReady || s == StatePlaying || s == StatePaused
	case "prepare":
		return s == StateReady
	case "play":
		return s == StateReady || s == StatePaused || s == StatePlaying
	case "pause":
		return s == StatePlaying || s == StatePaused
	case "stop":
		return s == StateReady || s == StatePlaying || s == StatePaused || s == StateIdle
	case "close":
		return true
	default:
		return false
	}
}
