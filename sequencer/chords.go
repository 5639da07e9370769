package sequencer

import (
	"math"
	"sync"

	"go-backtrack/harmony"
)

var styleOffsets = map[PlayStyle][]int{
	StyleBlock:     {0},
	StyleStabs8:    {0, 2, 4, 6},
	StyleArpUp:     {0, 2, 4, 6},
	StyleArpDown:   {0, 2, 4, 6},
	StyleArpUpDown: {0, 2, 4, 6},
}

var styleVelocity = map[PlayStyle]float64{
	StyleBlock:     0.74,
	StyleStabs8:    0.7,
	StyleArpUp:     0.68,
	StyleArpDown:   0.68,
	StyleArpUpDown: 0.68,
}

type segmentKey struct {
	bar    int
	half   int
	symbol string
}

// ChordEngine comps the chord cells of a piano track. Each chord segment is
// voiced once, leading from the previous segment's voicing.
type ChordEngine struct {
	store   *Store
	trackID string
	sink    NoteSink
	jitter  Jitter

	mu      sync.Mutex
	key     segmentKey
	cached  bool
	voicing []int // current segment
	lead    []int // last non-empty voicing, for voice leading
}

// NewChordEngine creates the chord engine of a piano track
func NewChordEngine(store *Store, trackID string, sink NoteSink) *ChordEngine {
	return &ChordEngine{store: store, trackID: trackID, sink: sink, jitter: defaultJitter}
}

// SetJitter replaces the humanize source
func (e *ChordEngine) SetJitter(j Jitter) { e.jitter = j }

// Reset forgets the cached voicing and the voice-leading history
func (e *ChordEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.key = segmentKey{}
	e.cached = false
	e.voicing = nil
	e.lead = nil
}

// Voicing returns the voicing of the current segment
func (e *ChordEngine) Voicing() []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]int(nil), e.voicing...)
}

// ScheduleStep plays the style event for this step, if any
func (e *ChordEngine) ScheduleStep(ev StepEvent) {
	defer guard("chords", ev)
	if ev.Context != ContextArrangement || e.sink == nil || !e.sink.Ready() {
		return
	}
	v, ok := viewTrack(e.store, e.trackID, ev.BarIndex)
	if !ok || !v.audible {
		return
	}
	cell, ok := v.cell.(ChordCell)
	if !ok {
		return
	}

	settings := v.track.Settings
	seg := cell.SegmentAt(ev.StepInBar)
	offsets := styleOffsets[settings.Style]
	idx := indexOf(offsets, seg.Offset%8)
	if idx < 0 {
		return
	}

	notes := e.voicingFor(segmentKey{bar: ev.BarIndex, half: seg.Half, symbol: seg.Chord.Symbol()}, seg.Chord, settings.Voicing)
	if len(notes) == 0 {
		return
	}

	velocity := styleVelocity[settings.Style] * v.track.Volume
	duration := math.Max(0.08, ev.Sixteenth*1.85)
	if settings.Style == StyleStabs8 {
		duration = math.Max(0.05, ev.Sixteenth*1.15)
	}

	switch settings.Style {
	case StyleArpUp, StyleArpDown, StyleArpUpDown:
		order := arpeggio(notes, settings.Style)
		e.play(order[idx%len(order)], ev.Time, duration, velocity, settings.Humanize)
	default:
		for _, n := range notes {
			e.play(n, ev.Time, duration, velocity, settings.Humanize)
		}
	}
}

func (e *ChordEngine) play(note int, at, duration, velocity float64, h Humanize) {
	at, velocity = humanize(h, e.jitter, at, velocity)
	e.sink.TriggerNote(note, at, duration, clampFloat(velocity, 0.08, 1))
}

// voicingFor returns the cached voicing of key, voicing the chord on the
// first request for a new segment.
func (e *ChordEngine) voicingFor(key segmentKey, chord harmony.Chord, r harmony.Range) []int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cached && e.key == key {
		return e.voicing
	}
	e.voicing = harmony.ChooseVoicing(chord, e.lead, r)
	if len(e.voicing) > 0 {
		e.lead = e.voicing
	}
	e.key = key
	e.cached = true
	return e.voicing
}

// arpeggio orders a voicing for the arp styles
func arpeggio(notes []int, style PlayStyle) []int {
	up := append([]int(nil), notes...)
	switch style {
	case StyleArpDown:
		return reversed(up)
	case StyleArpUpDown:
		if len(up) <= 2 {
			return up
		}
		return append(up, reversed(up[1:len(up)-1])...)
	}
	return up
}

func reversed(s []int) []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
