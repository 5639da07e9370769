package midi

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"go-backtrack/debug"
	"go-backtrack/sequencer"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Port supplies the sender of the current output, nil while unavailable
type Port interface {
	Sender() Sender
}

// drum hits are sent as short notes
const triggerLength = 0.05

// Output turns sink triggers into timed MIDI messages on one port.
// It implements sequencer.SinkProvider.
type Output struct {
	port      Port
	clock     sequencer.Clock
	kit       DrumKit
	channelOf func(t sequencer.Track) int
	click     uint8

	mu        sync.Mutex
	queue     eventQueue
	seq       uint64
	used      map[uint8]bool
	interrupt chan struct{}
}

// NewOutput creates an output. channelOf returns the 1-based channel of a
// track; clickChannel is 1-based too.
func NewOutput(port Port, clock sequencer.Clock, kit DrumKit, channelOf func(sequencer.Track) int, clickChannel int) *Output {
	return &Output{
		port:      port,
		clock:     clock,
		kit:       kit,
		channelOf: channelOf,
		click:     WireChannel(clickChannel),
		used:      make(map[uint8]bool),
		interrupt: make(chan struct{}, 1),
	}
}

// Ready reports whether the port is open
func (o *Output) Ready() bool {
	return o.port.Sender() != nil
}

// NoteSink returns the sink of a pitched track
func (o *Output) NoteSink(t sequencer.Track) sequencer.NoteSink {
	return &noteSink{out: o, channel: WireChannel(o.channelOf(t))}
}

// SampleSink returns the sink of a drum track
func (o *Output) SampleSink(t sequencer.Track) sequencer.SampleSink {
	return &drumSink{out: o, channel: WireChannel(o.channelOf(t))}
}

// ClickSink returns the metronome sink
func (o *Output) ClickSink() sequencer.NoteSink {
	return &noteSink{out: o, channel: o.click}
}

// Pending returns the number of queued messages
func (o *Output) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.queue)
}

func (o *Output) enqueue(evs ...Event) {
	o.mu.Lock()
	for _, ev := range evs {
		o.seq++
		ev.seq = o.seq
		o.queue.push(ev)
		o.used[ev.Channel] = true
	}
	o.mu.Unlock()

	select {
	case o.interrupt <- struct{}{}:
	default:
	}
}

// AllNotesOff drops everything queued, releases notes that were still
// waiting for their note-off and sends All Notes Off on every used channel.
func (o *Output) AllNotesOff() {
	o.mu.Lock()
	var release []Event
	for _, ev := range o.queue {
		if ev.Type == NoteOff {
			release = append(release, ev)
		}
	}
	o.queue = o.queue[:0]
	channels := make([]uint8, 0, len(o.used))
	for ch := range o.used {
		channels = append(channels, ch)
	}
	o.mu.Unlock()

	send := o.port.Sender()
	if send == nil {
		return
	}
	for _, ev := range release {
		send(gomidi.NoteOff(ev.Channel, ev.Note))
	}
	for _, ch := range channels {
		send(gomidi.ControlChange(ch, 123, 0))
	}
	debug.Log("output", "all notes off: released=%d channels=%d", len(release), len(channels))
}

// Run dispatches queued messages when they fall due (blocking - run in goroutine)
func (o *Output) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-o.interrupt:
			}
			continue
		}
		wait := o.queue[0].At - o.clock.Now()
		o.mu.Unlock()

		if wait > 0 {
			timer := time.NewTimer(time.Duration(wait * float64(time.Second)))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-o.interrupt:
				// queue changed, an earlier event may be first now
				timer.Stop()
				continue
			case <-timer.C:
			}
		}

		o.mu.Lock()
		if len(o.queue) == 0 {
			o.mu.Unlock()
			continue
		}
		ev := o.queue.pop()
		o.mu.Unlock()
		o.send(ev)
	}
}

func (o *Output) send(ev Event) {
	send := o.port.Sender()
	if send == nil {
		debug.LogEvery(100, "output", "port closed, dropping type=%x note=%d", ev.Type, ev.Note)
		return
	}
	var err error
	switch ev.Type {
	case NoteOn:
		err = send(gomidi.NoteOn(ev.Channel, ev.Note, ev.Velocity))
	case NoteOff:
		err = send(gomidi.NoteOff(ev.Channel, ev.Note))
	case CC:
		err = send(gomidi.ControlChange(ev.Channel, ev.Note, ev.Velocity))
	}
	if err != nil {
		debug.Log("output", "send: %v", err)
	}
}

type noteSink struct {
	out     *Output
	channel uint8
}

func (s *noteSink) Ready() bool { return s.out.Ready() }

func (s *noteSink) TriggerNote(note int, at, duration, velocity float64) {
	if note < 0 || note > 127 {
		return
	}
	n := uint8(note)
	s.out.enqueue(
		Event{At: at, Type: NoteOn, Channel: s.channel, Note: n, Velocity: Velocity(velocity)},
		Event{At: at + duration, Type: NoteOff, Channel: s.channel, Note: n},
	)
}

type drumSink struct {
	out     *Output
	channel uint8
}

func (s *drumSink) Ready() bool { return s.out.Ready() }

func (s *drumSink) TriggerSample(ref string, at, gain float64) {
	n, ok := s.out.kit.Note(ref)
	if !ok || gain <= 0 {
		return
	}
	s.out.enqueue(
		Event{At: at, Type: NoteOn, Channel: s.channel, Note: n, Velocity: Velocity(gain)},
		Event{At: at + triggerLength, Type: NoteOff, Channel: s.channel, Note: n},
	)
}

// Velocity maps 0..1 to MIDI velocity 1..127
func Velocity(v float64) uint8 {
	return uint8(math.Max(1, math.Min(127, math.Round(v*127))))
}

// WireChannel converts a 1-based channel to the 0-based wire channel
func WireChannel(ch int) uint8 {
	if ch < 1 || ch > 16 {
		return 0
	}
	return uint8(ch - 1)
}
