// Package export captures a rendered session and writes it as a standard
// MIDI file.
package export

import (
	"sync"

	"go-backtrack/midi"
	"go-backtrack/sequencer"
)

// ClickTrack is the name of the recorded metronome part
const ClickTrack = "click"

// drum hits are written as short notes
const hitLength = 0.05

// Note is one recorded note in seconds
type Note struct {
	Track    string
	Channel  uint8 // 0-based
	Key      uint8
	At       float64
	Duration float64
	Velocity uint8
}

// Recorder is a sequencer.SinkProvider that keeps every trigger in memory
type Recorder struct {
	kit       midi.DrumKit
	channelOf func(sequencer.Track) int
	click     uint8

	mu     sync.Mutex
	notes  []Note
	order  []string
	tracks map[string]bool
}

// NewRecorder creates a recorder using the same kit and channel map as the
// live output
func NewRecorder(kit midi.DrumKit, channelOf func(sequencer.Track) int, clickChannel int) *Recorder {
	return &Recorder{
		kit:       kit,
		channelOf: channelOf,
		click:     midi.WireChannel(clickChannel),
		tracks:    make(map[string]bool),
	}
}

func (r *Recorder) NoteSink(t sequencer.Track) sequencer.NoteSink {
	return &recordSink{rec: r, track: t.ID, channel: midi.WireChannel(r.channelOf(t))}
}

func (r *Recorder) SampleSink(t sequencer.Track) sequencer.SampleSink {
	return &recordSink{rec: r, track: t.ID, channel: midi.WireChannel(r.channelOf(t))}
}

func (r *Recorder) ClickSink() sequencer.NoteSink {
	return &recordSink{rec: r, track: ClickTrack, channel: r.click}
}

// Notes returns a copy of everything recorded so far
func (r *Recorder) Notes() []Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Note(nil), r.notes...)
}

// Tracks returns recorded track names in order of first note
func (r *Recorder) Tracks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *Recorder) add(n Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tracks[n.Track] {
		r.tracks[n.Track] = true
		r.order = append(r.order, n.Track)
	}
	r.notes = append(r.notes, n)
}

type recordSink struct {
	rec     *Recorder
	track   string
	channel uint8
}

func (s *recordSink) Ready() bool { return true }

func (s *recordSink) TriggerNote(note int, at, duration, velocity float64) {
	if note < 0 || note > 127 {
		return
	}
	s.rec.add(Note{
		Track:    s.track,
		Channel:  s.channel,
		Key:      uint8(note),
		At:       at,
		Duration: duration,
		Velocity: midi.Velocity(velocity),
	})
}

func (s *recordSink) TriggerSample(ref string, at, gain float64) {
	key, ok := s.rec.kit.Note(ref)
	if !ok || gain <= 0 {
		return
	}
	s.rec.add(Note{
		Track:    s.track,
		Channel:  s.channel,
		Key:      key,
		At:       at,
		Duration: hitLength,
		Velocity: midi.Velocity(gain),
	})
}
