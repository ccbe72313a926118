// Package avplaytest provides an in-memory avplay.Player for tests.
package avplaytest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emeltv/emel/avplay"
)

// Call names recorded by Player.
const (
	CallOpen           = "open"
	CallSetListener    = "setListener"
	CallSetDisplayRect = "setDisplayRect"
	CallPrepare        = "prepare"
	CallPlay           = "play"
	CallPause          = "pause"
	CallStop           = "stop"
	CallClose          = "close"
)

// Player enforces the avplay state machine in memory and records every call.
// Prepare requests stay pending until CompletePrepare or FailPrepare runs,
// which mirrors the asynchronous contract without goroutines.
type Player struct {
	mu       sync.Mutex
	state    avplay.State
	calls    []string
	url      string
	rect     avplay.Rect
	listener avplay.Listener
	pending  []prepareRequest

	// decoders counts decoders held at once; MaxDecoders is its high-water mark.
	decoders    int
	MaxDecoders int

	// OpenErr, when set, is returned by the next Open.
	OpenErr error
}

type prepareRequest struct {
	onSuccess func()
	onError   func(error)
}

// New returns a Player in state NONE.
func New() *Player {
	return &Player{state: avplay.StateNone}
}

func (p *Player) record(call string) {
	p.calls = append(p.calls, call)
}

func (p *Player) Open(url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CallOpen)

	if p.OpenErr != nil {
		err := p.OpenErr
		p.OpenErr = nil
		return err
	}
	if !avplay.Allowed(CallOpen, p.state) {
		return avplay.InvalidState(CallOpen, p.state)
	}
	if url == "" {
		return errors.New("empty url")
	}

	p.url = url
	p.state = avplay.StateReady
	p.decoders++
	if p.decoders > p.MaxDecoders {
		p.MaxDecoders = p.decoders
	}
	return nil
}

func (p *Player) SetListener(l avplay.Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CallSetListener)
	p.listener = l
}

func (p *Player) SetDisplayRect(r avplay.Rect) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CallSetDisplayRect)

	if !avplay.Allowed(CallSetDisplayRect, p.state) {
		return avplay.InvalidState(CallSetDisplayRect, p.state)
	}
	p.rect = r
	return nil
}

func (p *Player) PrepareAsync(onSuccess func(), onError func(error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CallPrepare)

	p.pending = append(p.pending, prepareRequest{onSuccess: onSuccess, onError: onError})
}

// Pending reports how many prepare requests await completion.
func (p *Player) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Player) popPending() (prepareRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.pending) == 0 {
		return prepareRequest{}, false
	}
	req := p.pending[0]
	p.pending = p.pending[1:]
	return req, true
}

// CompletePrepare resolves the oldest pending prepare. It fails the request instead
// when the player left READY in the meantime, as a real decoder would.
func (p *Player) CompletePrepare() bool {
	req, ok := p.popPending()
	if !ok {
		return false
	}

	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	if state != avplay.StateReady {
		if req.onError != nil {
			req.onError(avplay.InvalidState(CallPrepare, state))
		}
		return true
	}
	if req.onSuccess != nil {
		req.onSuccess()
	}
	return true
}

// FailPrepare resolves the oldest pending prepare with err.
func (p *Player) FailPrepare(err error) bool {
	req, ok := p.popPending()
	if !ok {
		return false
	}
	if req.onError != nil {
		req.onError(err)
	}
	return true
}

func (p *Player) transition(op string, to avplay.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(op)

	if !avplay.Allowed(op, p.state) {
		return avplay.InvalidState(op, p.state)
	}
	p.state = to
	return nil
}

func (p *Player) Play() error  { return p.transition(CallPlay, avplay.StatePlaying) }
func (p *Player) Pause() error { return p.transition(CallPause, avplay.StatePaused) }
func (p *Player) Stop() error  { return p.transition(CallStop, avplay.StateIdle) }

func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(CallClose)

	if p.state != avplay.StateNone {
		p.decoders--
	}
	p.state = avplay.StateNone
	p.url = ""
	return nil
}

func (p *Player) State() avplay.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState forces the lifecycle status, for tests that start mid-session.
func (p *Player) SetState(s avplay.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	held := func(st avplay.State) bool { return st != avplay.StateNone }
	if held(s) != held(p.state) {
		if !held(s) {
			p.decoders--
		} else {
			p.decoders++
			if p.decoders > p.MaxDecoders {
				p.MaxDecoders = p.decoders
			}
		}
	}
	p.state = s
}

// Calls returns the recorded call names in order.
func (p *Player) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Count returns how often call was recorded.
func (p *Player) Count(call string) int {
	n := 0
	for _, c := range p.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (p *Player) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

// URL returns the stream bound by the last successful Open.
func (p *Player) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Rect returns the last accepted display rectangle.
func (p *Player) Rect() avplay.Rect {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rect
}

// Decoders returns the number of decoders currently held.
func (p *Player) Decoders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.decoders
}

// FireBufferingStart and the other Fire methods deliver listener events.
func (p *Player) FireBufferingStart() {
	if l := p.currentListener(); l.OnBufferingStart != nil {
		l.OnBufferingStart()
	}
}

func (p *Player) FireBufferingComplete() {
	if l := p.currentListener(); l.OnBufferingComplete != nil {
		l.OnBufferingComplete()
	}
}

func (p *Player) FireStreamCompleted() {
	if l := p.currentListener(); l.OnStreamCompleted != nil {
		l.OnStreamCompleted()
	}
}

func (p *Player) FireError(code string) {
	if l := p.currentListener(); l.OnError != nil {
		l.OnError(fmt.Errorf("player error: %s", code))
	}
}

func (p *Player) currentListener() avplay.Listener {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listener
}

var _ avplay.Player = (*Player)(nil)
