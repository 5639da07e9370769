package sequencer

import (
	"sync"

	"go-backtrack/debug"
)

// SinkProvider hands out the sound sinks for each track
type SinkProvider interface {
	SampleSink(t Track) SampleSink
	NoteSink(t Track) NoteSink
	ClickSink() NoteSink
}

// BuildHandlers creates one engine per track plus the metronome, in track order
func BuildHandlers(store *Store, sinks SinkProvider) []StepHandler {
	var handlers []StepHandler
	store.View(func(s *Session) {
		for _, t := range s.Tracks {
			switch t.Kind {
			case KindDrum:
				handlers = append(handlers, NewDrumEngine(store, t.ID, sinks.SampleSink(t)))
			case KindBass:
				handlers = append(handlers, NewBassEngine(store, t.ID, sinks.NoteSink(t)))
			case KindLead:
				handlers = append(handlers, NewLeadEngine(store, t.ID, sinks.NoteSink(t)))
			case KindPiano:
				handlers = append(handlers, NewChordEngine(store, t.ID, sinks.NoteSink(t)))
			case KindPad:
				handlers = append(handlers, NewPadEngine(store, t.ID, sinks.NoteSink(t)))
			}
		}
	})
	return append(handlers, NewMetronomeEngine(store, sinks.ClickSink()))
}

// EventKind tags a Manager event
type EventKind int

const (
	EventStart EventKind = iota
	EventStep
	EventStop
)

// Event is published to subscribers; Step is set for EventStep
type Event struct {
	Kind   EventKind
	Step   StepEvent
	Reason StopReason
}

// Manager owns the scheduler and fans each step out to the track engines
type Manager struct {
	store *Store
	sinks SinkProvider

	mu          sync.RWMutex
	sched       *Scheduler
	handlers    []StepHandler
	playhead    StepEvent
	hasPlayhead bool
	subscribers []chan Event

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager. Timing comes from opts; its callbacks are
// replaced by the manager's own.
func NewManager(store *Store, clock Clock, sinks SinkProvider, opts Options) *Manager {
	m := &Manager{
		store:      store,
		sinks:      sinks,
		UpdateChan: make(chan struct{}, 1),
	}
	opts.OnStep = m.dispatch
	opts.OnVisual = m.visual
	opts.OnStop = m.stopped
	m.sched = NewScheduler(store, clock, opts)
	store.OnChange(m.notifyUpdate)
	return m
}

// Store returns the session store
func (m *Manager) Store() *Store {
	return m.store
}

// Play starts playback in the given context. Engines are rebuilt from the
// current track list.
func (m *Manager) Play(ctx PlayContext) bool {
	if m.sched.IsRunning() {
		return false
	}
	handlers := BuildHandlers(m.store, m.sinks)
	for _, h := range handlers {
		if r, ok := h.(Resetter); ok {
			r.Reset()
		}
	}
	m.mu.Lock()
	m.handlers = handlers
	m.hasPlayhead = false
	m.mu.Unlock()

	m.store.SetTransport(func(t *Transport) {
		t.Context = ctx
		t.IsPlaying = true
	})
	m.publish(Event{Kind: EventStart})
	if !m.sched.Start() {
		return false
	}
	debug.Log("manager", "play context=%s handlers=%d", ctx, len(handlers))
	return true
}

// Stop stops playback
func (m *Manager) Stop() {
	m.sched.Stop()
}

// Toggle starts or stops playback in the transport's context
func (m *Manager) Toggle() {
	if m.sched.IsRunning() {
		m.Stop()
		return
	}
	m.Play(m.store.Transport().Context)
}

// IsPlaying reports whether the scheduler runs
func (m *Manager) IsPlaying() bool {
	return m.sched.IsRunning()
}

// Playhead returns the last step that became audible
func (m *Manager) Playhead() (StepEvent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.playhead, m.hasPlayhead
}

// SetTempo sets the BPM, clamped to 30..300
func (m *Manager) SetTempo(bpm float64) {
	m.store.SetTransport(func(t *Transport) { t.BPM = ClampBPM(bpm) })
}

// SetSwing sets swing percent, clamped to 0..60
func (m *Manager) SetSwing(swing float64) {
	m.store.SetTransport(func(t *Transport) { t.SwingPercent = ClampSwing(swing) })
}

// Subscribe returns a channel of start, step and stop events. Slow
// subscribers miss events rather than block playback.
func (m *Manager) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

func (m *Manager) dispatch(ev StepEvent) {
	m.mu.RLock()
	handlers := m.handlers
	m.mu.RUnlock()
	for _, h := range handlers {
		h.ScheduleStep(ev)
	}
}

func (m *Manager) visual(ev StepEvent) {
	m.mu.Lock()
	m.playhead = ev
	m.hasPlayhead = true
	m.mu.Unlock()
	m.publish(Event{Kind: EventStep, Step: ev})
	m.notifyUpdate()
}

func (m *Manager) stopped(reason StopReason) {
	m.mu.Lock()
	handlers := m.handlers
	m.hasPlayhead = false
	m.mu.Unlock()

	for _, h := range handlers {
		if r, ok := h.(Resetter); ok {
			r.Reset()
		}
	}
	if s, ok := m.sinks.(Silencer); ok {
		s.AllNotesOff()
	}
	m.store.SetTransport(func(t *Transport) { t.IsPlaying = false })
	debug.Log("manager", "stopped reason=%s", reason)
	m.publish(Event{Kind: EventStop, Reason: reason})
	m.notifyUpdate()
}

func (m *Manager) publish(ev Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// notifyUpdate wakes the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
