// Package player implements avplay.Player on top of mpv and its JSON-IPC protocol.
package player

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/emeltv/emel/avplay"
	"github.com/emeltv/emel/filesystem"
	"github.com/emeltv/emel/log"
	"github.com/samber/lo"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitGrace         = 3 * time.Second
)

// ErrExited is reported when the player process goes away on its own.
var ErrExited = errors.New("player process exited")

// Options configures an MPV player.
type Options struct {
	// Binary is the executable to launch. Defaults to "mpv".
	Binary string

	// SocketDir holds the IPC socket.
	SocketDir string

	// PrepareTimeout bounds PrepareAsync.
	PrepareTimeout time.Duration
}

// process is a launched player.
type process struct {
	cmd    *exec.Cmd
	exited chan struct{}
	kill   func() error
}

// launcher starts the player binary with args.
type launcher func(binary string, args []string) (*process, error)

func execLauncher(binary string, args []string) (*process, error) {
	cmd := exec.Command(binary, args...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &process{
		cmd:    cmd,
		exited: make(chan struct{}),
		kill:   func() error { return killProcess(cmd) },
	}

	// reap to prevent zombies
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()

	return p, nil
}

// MPV drives one mpv process. Open acquires the process, Close releases it.
type MPV struct {
	binary         string
	socketDir      string
	prepareTimeout time.Duration
	launch         launcher

	mu         sync.Mutex
	state      avplay.State
	url        string
	socketPath string
	proc       *process
	events     *eventListener
	listener   avplay.Listener
	// loading is non-nil while a prepare waits for mpv to load the file.
	loading chan error
	closing bool
	opening bool

	ipcMu sync.Mutex
}

// NewMPV creates a player in state NONE. No process is started until Open.
func NewMPV(opts Options) *MPV {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.PrepareTimeout <= 0 {
		opts.PrepareTimeout = 15 * time.Second
	}

	return &MPV{
		binary:         opts.Binary,
		socketDir:      opts.SocketDir,
		prepareTimeout: opts.PrepareTimeout,
		launch:         execLauncher,
		state:          avplay.StateNone,
	}
}

// Open validates the stream address, launches an idle paused mpv and attaches to its socket.
// From IDLE the stopped process is reused, so a player never holds two decoders.
func (m *MPV) Open(rawURL string) error {
	m.mu.Lock()

	if m.opening || !avplay.Allowed("open", m.state) {
		err := avplay.InvalidState("open", m.state)
		m.mu.Unlock()
		return err
	}

	target, err := sanitizeMediaTarget(rawURL)
	if err != nil {
		m.mu.Unlock()
		return fmt.Errorf("invalid media target: %w", err)
	}

	if m.proc != nil {
		m.url = target
		m.state = avplay.StateReady
		m.mu.Unlock()
		log.Infof("%s reopened on %s", m.binary, m.socketPath)
		return nil
	}

	socketPath, err := newSocketPath(m.socketDir)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	// Pass only what the lifecycle needs; decoding options stay with the user's mpv.conf.
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--force-window=yes",
		"--pause",
		"--keep-open=no",
		"--title=emel",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}

	proc, err := m.launch(m.binary, args)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.socketPath = socketPath
	m.proc = proc
	m.closing = false
	m.opening = true
	m.mu.Unlock()

	// the socket wait sleeps, State and Close must not queue behind it
	var events *eventListener
	err = m.waitForSocket(proc, socketPath)
	if err != nil {
		err = fmt.Errorf("%s socket not ready: %w", m.binary, err)
	} else {
		events = newEventListener(socketPath, m.handleEvent)
		err = events.Start()
	}

	m.mu.Lock()
	m.opening = false
	if err == nil && (m.closing || m.proc != proc) {
		err = errors.New("player closed while opening")
	}
	if err != nil {
		m.abandon(proc, socketPath)
		m.mu.Unlock()
		if events != nil {
			events.Stop()
		}
		return err
	}

	m.events = events
	m.url = target
	m.state = avplay.StateReady
	m.mu.Unlock()

	go m.watch(proc)
	log.Infof("%s attached on %s", m.binary, socketPath)
	return nil
}

// abandon kills a half-opened process. Callers hold m.mu.
func (m *MPV) abandon(proc *process, socketPath string) {
	select {
	case <-proc.exited:
	default:
		log.Warnf("killing %s: open did not complete", m.binary)
		_ = proc.kill()
	}
	_ = filesystem.RemoveIfExists(socketPath)

	if m.proc == proc {
		m.closing = true
		m.proc = nil
		m.socketPath = ""
	}
}

func (m *MPV) waitForSocket(proc *process, socketPath string) error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-proc.exited:
			return fmt.Errorf("%s exited before socket was ready", m.binary)
		default:
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}

// watch notices a process that exits without Close, e.g. the user closed its window.
func (m *MPV) watch(proc *process) {
	<-proc.exited

	m.mu.Lock()
	if m.closing || m.proc != proc {
		m.mu.Unlock()
		return
	}
	m.state = avplay.StateNone
	m.proc = nil
	m.settleLoading(ErrExited)
	onError := m.listener.OnError
	events := m.events
	m.events = nil
	m.mu.Unlock()

	if events != nil {
		events.Stop()
	}
	if onError != nil {
		onError(ErrExited)
	}
}

// SetListener replaces the listener set.
func (m *MPV) SetListener(l avplay.Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// SetDisplayRect moves and resizes the video window.
func (m *MPV) SetDisplayRect(r avplay.Rect) error {
	if err := r.Validate(); err != nil {
		return err
	}
	socket, err := m.require("setDisplayRect")
	if err != nil {
		return err
	}

	_, err = m.sendCommand(socket, "set_property", "geometry", r.String())
	return err
}

// PrepareAsync loads the stream paused and reports once mpv has loaded it.
func (m *MPV) PrepareAsync(onSuccess func(), onError func(error)) {
	m.mu.Lock()
	if !avplay.Allowed("prepare", m.state) {
		err := avplay.InvalidState("prepare", m.state)
		m.mu.Unlock()
		go report(nil, onError, err)
		return
	}
	if m.loading != nil {
		m.mu.Unlock()
		go report(nil, onError, errors.New("prepare already in progress"))
		return
	}

	loading := make(chan error, 1)
	m.loading = loading
	target := m.url
	socket := m.socketPath
	exited := m.proc.exited
	m.mu.Unlock()

	go func() {
		if _, err := m.sendCommand(socket, "loadfile", target, "replace"); err != nil {
			m.mu.Lock()
			if m.loading == loading {
				m.settleLoading(fmt.Errorf("loadfile: %w", err))
			}
			m.mu.Unlock()
		}

		var err error
		select {
		case err = <-loading:
		case <-exited:
			err = ErrExited
		case <-time.After(m.prepareTimeout):
			err = fmt.Errorf("prepare timed out after %s", m.prepareTimeout)
			m.mu.Lock()
			if m.loading == loading {
				m.loading = nil
			}
			m.mu.Unlock()
		}

		report(onSuccess, onError, err)
	}()
}

func report(onSuccess func(), onError func(error), err error) {
	if err != nil {
		if onError != nil {
			onError(err)
		}
		return
	}
	if onSuccess != nil {
		onSuccess()
	}
}

// settleLoading resolves a waiting prepare. Callers hold m.mu.
func (m *MPV) settleLoading(err error) bool {
	if m.loading == nil {
		return false
	}
	m.loading <- err
	m.loading = nil
	return true
}

// Play resumes rendering.
func (m *MPV) Play() error {
	return m.transition("play", avplay.StatePlaying, "set_property", "pause", false)
}

// Pause holds the current frame.
func (m *MPV) Pause() error {
	return m.transition("pause", avplay.StatePaused, "set_property", "pause", true)
}

// Stop unloads the stream but keeps the process.
func (m *MPV) Stop() error {
	m.mu.Lock()
	if m.state == avplay.StateIdle {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	return m.transition("stop", avplay.StateIdle, "stop")
}

func (m *MPV) transition(op string, to avplay.State, command ...interface{}) error {
	socket, err := m.require(op)
	if err != nil {
		return err
	}

	if _, err := m.sendCommand(socket, command...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.mu.Lock()
	m.state = to
	m.mu.Unlock()
	return nil
}

// require checks op against the current state and returns the socket to send it on.
func (m *MPV) require(op string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !avplay.Allowed(op, m.state) {
		return "", avplay.InvalidState(op, m.state)
	}
	return m.socketPath, nil
}

// Close quits mpv, killing its process group if it does not leave in time.
func (m *MPV) Close() error {
	m.mu.Lock()
	if m.state == avplay.StateNone && m.proc == nil {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	proc := m.proc
	events := m.events
	socketPath := m.socketPath
	m.settleLoading(errors.New("player closed"))
	m.mu.Unlock()

	if events != nil {
		events.Stop()
	}

	if proc != nil {
		_, _ = m.sendCommand(socketPath, "quit")

		select {
		case <-proc.exited:
		case <-time.After(quitGrace):
			_ = proc.kill()
		}
	}

	m.mu.Lock()
	m.state = avplay.StateNone
	m.proc = nil
	m.events = nil
	m.url = ""
	m.socketPath = ""
	m.mu.Unlock()

	return filesystem.RemoveIfExists(socketPath)
}

// State reports the lifecycle status.
func (m *MPV) State() avplay.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Socket returns the IPC socket path, empty while closed.
func (m *MPV) Socket() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.socketPath
}

// handleEvent translates mpv events into listener callbacks and prepare results.
func (m *MPV) handleEvent(msg ipcMessage) {
	m.mu.Lock()
	l := m.listener

	var deliver func()
	switch msg.Event {
	case "file-loaded":
		m.settleLoading(nil)
	case "end-file":
		switch msg.Reason {
		case "eof":
			deliver = l.OnStreamCompleted
		case "error":
			err := fmt.Errorf("playback error: %s", lo.Ternary(msg.FileError != "", msg.FileError, "unknown"))
			if !m.settleLoading(err) && l.OnError != nil {
				deliver = func() { l.OnError(err) }
			}
		case "stop", "quit":
			m.settleLoading(fmt.Errorf("load interrupted: %s", msg.Reason))
		}
	case "property-change":
		if msg.Name == "paused-for-cache" {
			if buffering, _ := msg.Data.(bool); buffering {
				deliver = l.OnBufferingStart
			} else {
				deliver = l.OnBufferingComplete
			}
		}
	}
	m.mu.Unlock()

	if deliver != nil {
		deliver()
	}
}

// newSocketPath returns a random socket path inside dir.
func newSocketPath(dir string) (string, error) {
	randomBytes := make([]byte, 4)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("emel-%x.sock", randomBytes)), nil
}

// sanitizeMediaTarget validates that a URL is safe to hand to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in URL")
	}

	// a leading dash would be parsed as an mpv flag
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

var _ avplay.Player = (*MPV)(nil)
