package midi

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go-backtrack/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Sender sends one MIDI message to an open port
type Sender func(msg gomidi.Message) error

// ErrPortsHung is returned when the MIDI system does not answer
var ErrPortsHung = errors.New("midi: port listing timed out")

// portTimeout bounds a port listing (CoreMIDI can hang)
const portTimeout = 3 * time.Second

// ListOutPorts returns the names of all output ports
func ListOutPorts(timeout time.Duration) ([]string, error) {
	ch := make(chan []string, 1)
	go func() {
		var names []string
		for _, p := range gomidi.GetOutPorts() {
			names = append(names, p.String())
		}
		ch <- names
	}()

	select {
	case names := <-ch:
		return names, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return nil, ErrPortsHung
	}
}

// MatchPort picks the port for want: exact name first, then a
// case-insensitive substring. An empty want takes the first port.
func MatchPort(names []string, want string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	if want == "" {
		return names[0], true
	}
	for _, n := range names {
		if n == want {
			return n, true
		}
	}
	lw := strings.ToLower(want)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lw) {
			return n, true
		}
	}
	return "", false
}

func openOutPort(name string) (Sender, error) {
	for _, port := range gomidi.GetOutPorts() {
		if port.String() == name {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, err
			}
			return send, nil
		}
	}
	return nil, fmt.Errorf("midi: no output port %q", name)
}

// PortEventType says whether the output appeared or vanished
type PortEventType int

const (
	PortConnected PortEventType = iota
	PortDisconnected
)

// PortEvent is emitted when the watched output connects or disconnects
type PortEvent struct {
	Type PortEventType
	Name string
}

// PortWatcher keeps one output port open across hot-plugs
type PortWatcher struct {
	want     string
	pollRate time.Duration
	list     func() ([]string, error)
	open     func(name string) (Sender, error)

	mu     sync.RWMutex
	name   string
	sender Sender
	events chan PortEvent
}

// NewPortWatcher watches for an output port matching want
func NewPortWatcher(want string) *PortWatcher {
	return &PortWatcher{
		want:     want,
		pollRate: time.Second,
		list:     func() ([]string, error) { return ListOutPorts(portTimeout) },
		open:     openOutPort,
		events:   make(chan PortEvent, 16),
	}
}

// Events returns connect/disconnect events
func (w *PortWatcher) Events() <-chan PortEvent {
	return w.events
}

// Sender returns the open port's sender, nil while disconnected
func (w *PortWatcher) Sender() Sender {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.sender
}

// Name returns the connected port name
func (w *PortWatcher) Name() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.name
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *PortWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-ctx.Done():
			close(w.events)
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *PortWatcher) scan() {
	names, err := w.list()
	if err != nil {
		// hung driver: keep the current state and retry next tick
		debug.Log("ports", "scan: %v", err)
		return
	}

	w.mu.RLock()
	current := w.name
	w.mu.RUnlock()

	if current != "" {
		for _, n := range names {
			if n == current {
				return
			}
		}
		w.mu.Lock()
		w.name, w.sender = "", nil
		w.mu.Unlock()
		debug.Log("ports", "disconnected %s", current)
		w.emit(PortEvent{Type: PortDisconnected, Name: current})
	}

	name, ok := MatchPort(names, w.want)
	if !ok {
		return
	}
	send, err := w.open(name)
	if err != nil {
		debug.Log("ports", "open %s: %v", name, err)
		return
	}
	w.mu.Lock()
	w.name, w.sender = name, send
	w.mu.Unlock()
	debug.Log("ports", "connected %s", name)
	w.emit(PortEvent{Type: PortConnected, Name: name})
}

func (w *PortWatcher) emit(ev PortEvent) {
	select {
	case w.events <- ev:
	default:
	}
}
