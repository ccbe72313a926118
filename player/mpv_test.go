package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emeltv/emel/avplay"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeMPV speaks enough of the mpv JSON-IPC protocol to exercise MPV.
type fakeMPV struct {
	mu       sync.Mutex
	ln       net.Listener
	conns    []net.Conn
	commands [][]interface{}
	args     []string
	exited   chan struct{}
	once     sync.Once

	// loadError makes loadfile end with an error instead of loading.
	loadError string
	// holdLoad leaves loadfile unanswered by events, as a slow origin would.
	holdLoad bool
	launches int
}

func (f *fakeMPV) launcher(binary string, args []string) (*process, error) {
	f.mu.Lock()
	f.args = args
	f.launches++
	f.mu.Unlock()
	var socket string
	for _, a := range args {
		if strings.HasPrefix(a, "--input-ipc-server=") {
			socket = strings.TrimPrefix(a, "--input-ipc-server=")
		}
	}

	ln, err := net.Listen("unix", socket)
	if err != nil {
		return nil, err
	}
	f.ln = ln
	f.exited = make(chan struct{})

	go f.accept()

	return &process{
		exited: f.exited,
		kill: func() error {
			f.exit()
			return nil
		},
	}, nil
}

func (f *fakeMPV) accept() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		f.mu.Lock()
		f.conns = append(f.conns, conn)
		f.mu.Unlock()
		go f.serve(conn)
	}
}

func (f *fakeMPV) serve(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var cmd ipcCommand
		if err := json.Unmarshal(scanner.Bytes(), &cmd); err != nil {
			continue
		}

		f.mu.Lock()
		f.commands = append(f.commands, cmd.Command)
		holdLoad, loadError := f.holdLoad, f.loadError
		f.mu.Unlock()

		f.write(conn, map[string]interface{}{"request_id": cmd.RequestID, "error": "success", "data": nil})

		switch cmd.Command[0] {
		case "loadfile":
			f.Broadcast(map[string]interface{}{"event": "start-file"})
			if holdLoad {
				break
			}
			if loadError != "" {
				f.Broadcast(map[string]interface{}{"event": "end-file", "reason": "error", "file_error": loadError})
			} else {
				f.Broadcast(map[string]interface{}{"event": "file-loaded"})
			}
		case "quit":
			f.exit()
			return
		}
	}
}

func (f *fakeMPV) write(conn net.Conn, v interface{}) {
	payload, _ := json.Marshal(v)
	f.mu.Lock()
	defer f.mu.Unlock()
	_, _ = conn.Write(append(payload, '\n'))
}

// Broadcast sends an event line to every connected client.
func (f *fakeMPV) Broadcast(v interface{}) {
	f.mu.Lock()
	conns := append([]net.Conn(nil), f.conns...)
	f.mu.Unlock()
	for _, c := range conns {
		f.write(c, v)
	}
}

func (f *fakeMPV) exit() {
	f.once.Do(func() {
		_ = f.ln.Close()
		f.mu.Lock()
		for _, c := range f.conns {
			_ = c.Close()
		}
		f.mu.Unlock()
		close(f.exited)
	})
}

func (f *fakeMPV) sent(name string) [][]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]interface{}
	for _, c := range f.commands {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

// observing waits until the event connection has subscribed, so broadcasts reach it.
func (f *fakeMPV) observing() bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if len(f.sent("observe_property")) > 0 {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func (f *fakeMPV) launched() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launches
}

func newTestMPV(t *testing.T) (*MPV, *fakeMPV) {
	// short path: unix socket names are length-limited
	dir, err := os.MkdirTemp("", "emel")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })

	fake := &fakeMPV{}
	m := NewMPV(Options{SocketDir: dir, PrepareTimeout: 2 * time.Second})
	m.launch = fake.launcher
	return m, fake
}

func waitFor(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	case <-time.After(3 * time.Second):
		return false
	}
}

func TestSanitizeMediaTarget(t *testing.T) {
	Convey("sanitizeMediaTarget", t, func() {
		Convey("accepts http and https", func() {
			u, err := sanitizeMediaTarget(" https://example.com/live.m3u8 ")
			So(err, ShouldBeNil)
			So(u, ShouldEqual, "https://example.com/live.m3u8")
		})

		Convey("cleans local paths", func() {
			p, err := sanitizeMediaTarget("videos/../live.m3u8")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, "live.m3u8")
		})

		Convey("rejects flag-like, empty and control-character targets", func() {
			for _, bad := range []string{"", "--script=evil.lua", "https://a\n.com", "ftp://example.com/x.m3u8"} {
				_, err := sanitizeMediaTarget(bad)
				So(err, ShouldNotBeNil)
			}
		})
	})
}

func TestMPVLifecycle(t *testing.T) {
	Convey("Given an mpv player backed by a fake IPC server", t, func() {
		m, fake := newTestMPV(t)

		Convey("Operations before Open are rejected", func() {
			So(errors.Is(m.Play(), avplay.ErrInvalidState), ShouldBeTrue)
			So(errors.Is(m.SetDisplayRect(avplay.Rect{Width: 1, Height: 1}), avplay.ErrInvalidState), ShouldBeTrue)

			failed := make(chan struct{})
			m.PrepareAsync(nil, func(err error) {
				if errors.Is(err, avplay.ErrInvalidState) {
					close(failed)
				}
			})
			So(waitFor(failed), ShouldBeTrue)
			So(m.Close(), ShouldBeNil)
		})

		Convey("Open rejects unsafe targets without launching", func() {
			So(m.Open("--really-not-a-url"), ShouldNotBeNil)
			So(fake.args, ShouldBeNil)
			So(m.State(), ShouldEqual, avplay.StateNone)
		})

		Convey("Open launches an idle paused player", func() {
			So(m.Open("https://example.com/live.m3u8"), ShouldBeNil)
			defer m.Close()
			So(fake.observing(), ShouldBeTrue)

			So(m.State(), ShouldEqual, avplay.StateReady)
			So(fake.args, ShouldContain, "--idle=yes")
			So(fake.args, ShouldContain, "--pause")
			So(m.Socket(), ShouldNotBeEmpty)

			Convey("A second Open is rejected while the decoder is held", func() {
				So(errors.Is(m.Open("https://example.com/live.m3u8"), avplay.ErrInvalidState), ShouldBeTrue)
			})

			Convey("SetDisplayRect sets the window geometry", func() {
				So(m.SetDisplayRect(avplay.Rect{Width: 1920, Height: 1080}), ShouldBeNil)
				sets := fake.sent("set_property")
				So(len(sets), ShouldEqual, 1)
				So(sets[0], ShouldResemble, []interface{}{"set_property", "geometry", "1920x1080+0+0"})
			})

			Convey("PrepareAsync reports success once the file is loaded", func() {
				done := make(chan struct{})
				m.PrepareAsync(func() { close(done) }, nil)
				So(waitFor(done), ShouldBeTrue)
				So(fake.sent("loadfile")[0][1], ShouldEqual, "https://example.com/live.m3u8")

				Convey("then Play, Pause and Stop drive the state machine", func() {
					So(m.Play(), ShouldBeNil)
					So(m.State(), ShouldEqual, avplay.StatePlaying)
					So(m.Pause(), ShouldBeNil)
					So(m.State(), ShouldEqual, avplay.StatePaused)
					So(m.Stop(), ShouldBeNil)
					So(m.State(), ShouldEqual, avplay.StateIdle)

					pauses := fake.sent("set_property")
					So(pauses[0], ShouldResemble, []interface{}{"set_property", "pause", false})
					So(pauses[1], ShouldResemble, []interface{}{"set_property", "pause", true})
				})
			})

			Convey("Open after Stop reuses the running process", func() {
				loaded := make(chan struct{})
				m.PrepareAsync(func() { close(loaded) }, nil)
				So(waitFor(loaded), ShouldBeTrue)
				So(m.Stop(), ShouldBeNil)
				So(m.State(), ShouldEqual, avplay.StateIdle)
				socket := m.Socket()

				So(m.Open("https://example.com/other.m3u8"), ShouldBeNil)
				So(fake.launched(), ShouldEqual, 1)
				So(m.Socket(), ShouldEqual, socket)
				So(m.State(), ShouldEqual, avplay.StateReady)

				reloaded := make(chan struct{})
				m.PrepareAsync(func() { close(reloaded) }, nil)
				So(waitFor(reloaded), ShouldBeTrue)
				loads := fake.sent("loadfile")
				So(len(loads), ShouldEqual, 2)
				So(loads[1][1], ShouldEqual, "https://example.com/other.m3u8")
			})

			Convey("Close while a prepare is in flight fails the prepare", func() {
				fake.mu.Lock()
				fake.holdLoad = true
				fake.mu.Unlock()
				failed := make(chan error, 1)
				m.PrepareAsync(func() { failed <- nil }, func(err error) { failed <- err })

				So(m.Close(), ShouldBeNil)
				select {
				case err := <-failed:
					So(err, ShouldNotBeNil)
				case <-time.After(3 * time.Second):
					So("prepare never resolved", ShouldBeEmpty)
				}
				So(m.State(), ShouldEqual, avplay.StateNone)
				So(m.Socket(), ShouldBeEmpty)
			})

			Convey("Listener events are delivered", func() {
				buffering := make(chan struct{})
				buffered := make(chan struct{})
				completed := make(chan struct{})
				m.SetListener(avplay.Listener{
					OnBufferingStart:    func() { close(buffering) },
					OnBufferingComplete: func() { close(buffered) },
					OnStreamCompleted:   func() { close(completed) },
				})

				fake.Broadcast(map[string]interface{}{"event": "property-change", "name": "paused-for-cache", "data": true})
				So(waitFor(buffering), ShouldBeTrue)
				fake.Broadcast(map[string]interface{}{"event": "property-change", "name": "paused-for-cache", "data": false})
				So(waitFor(buffered), ShouldBeTrue)
				fake.Broadcast(map[string]interface{}{"event": "end-file", "reason": "eof"})
				So(waitFor(completed), ShouldBeTrue)
			})

			Convey("Close quits the process and removes the socket", func() {
				socket := m.Socket()
				So(m.Close(), ShouldBeNil)
				So(m.State(), ShouldEqual, avplay.StateNone)
				So(len(fake.sent("quit")), ShouldEqual, 1)
				_, err := os.Stat(socket)
				So(os.IsNotExist(err), ShouldBeTrue)

				Convey("and is idempotent", func() {
					So(m.Close(), ShouldBeNil)
				})
			})

			Convey("An unexpected exit releases the player and reports an error", func() {
				failed := make(chan struct{})
				m.SetListener(avplay.Listener{OnError: func(err error) {
					if errors.Is(err, ErrExited) {
						close(failed)
					}
				}})
				fake.exit()
				So(waitFor(failed), ShouldBeTrue)
				So(m.State(), ShouldEqual, avplay.StateNone)
			})
		})

		Convey("State answers while Open waits for the socket", func() {
			opened := make(chan error, 1)
			go func() { opened <- m.Open("https://example.com/live.m3u8") }()
			defer m.Close()

			time.Sleep(50 * time.Millisecond)
			start := time.Now()
			So(m.State(), ShouldEqual, avplay.StateNone)
			So(time.Since(start), ShouldBeLessThan, 100*time.Millisecond)

			So(<-opened, ShouldBeNil)
			So(m.State(), ShouldEqual, avplay.StateReady)
		})

		Convey("Close during Open leaves the player released", func() {
			opened := make(chan error, 1)
			go func() { opened <- m.Open("https://example.com/live.m3u8") }()

			time.Sleep(50 * time.Millisecond)
			So(m.Close(), ShouldBeNil)
			So(<-opened, ShouldNotBeNil)
			So(m.State(), ShouldEqual, avplay.StateNone)
			So(fake.launched(), ShouldEqual, 1)
		})

		Convey("A load error fails the prepare", func() {
			fake.loadError = "loading failed"
			So(m.Open("https://example.com/missing.m3u8"), ShouldBeNil)
			defer m.Close()
			So(fake.observing(), ShouldBeTrue)

			failed := make(chan error, 1)
			m.PrepareAsync(func() { failed <- nil }, func(err error) { failed <- err })

			select {
			case err := <-failed:
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "loading failed")
			case <-time.After(3 * time.Second):
				So("prepare never resolved", ShouldBeEmpty)
			}
			So(m.State(), ShouldEqual, avplay.StateReady)
		})
	})
}
