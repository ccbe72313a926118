package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/emeltv/emel/log"
)

// eventCallback receives every event line mpv broadcasts.
type eventCallback func(msg ipcMessage)

// observed lists the properties whose changes are reported as property-change events.
var observed = []string{
	"paused-for-cache",
}

// eventListener keeps a persistent IPC connection open and feeds events to a callback.
// Property observers are registered on that same connection: mpv scopes them per client.
type eventListener struct {
	socketPath string
	callback   eventCallback

	mu        sync.Mutex
	conn      net.Conn
	listening bool
	done      chan struct{}
}

func newEventListener(socketPath string, callback eventCallback) *eventListener {
	return &eventListener{
		socketPath: socketPath,
		callback:   callback,
	}
}

// Start connects, subscribes to the observed properties and starts the read loop.
func (el *eventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []interface{}{"observe_property", i + 1, name}})
		if err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true
	el.done = make(chan struct{})

	go el.readLoop(conn, el.done)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the connection and waits for the read loop to finish.
func (el *eventListener) Stop() {
	el.mu.Lock()
	if !el.listening {
		el.mu.Unlock()
		return
	}
	el.listening = false
	conn, done := el.conn, el.done
	el.mu.Unlock()

	_ = conn.Close()
	<-done
}

func (el *eventListener) readLoop(conn net.Conn, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		// replies to our observe_property commands carry no event
		if msg.Event == "" {
			continue
		}
		el.callback(msg)
	}

	el.mu.Lock()
	stopping := !el.listening
	el.listening = false
	el.mu.Unlock()

	if err := scanner.Err(); err != nil && !stopping {
		log.Warnf("event listener read error: %v", err)
	}
}
