package sequencer

import (
	"math"

	"go-backtrack/harmony"
)

type rhythm struct {
	offsets    []int // steps within each half bar
	intervals  []int
	velocities []float64
}

var rhythms = map[RhythmPreset]rhythm{
	RhythmRoot8ths:  {[]int{0, 2, 4, 6}, []int{0, 0, 0, 0}, []float64{0.84, 0.8, 0.84, 0.8}},
	RhythmRootFifth: {[]int{0, 2, 4, 6}, []int{0, 7, 0, 7}, []float64{0.84, 0.8, 0.84, 0.8}},
	RhythmOctave:    {[]int{0, 2, 4, 6}, []int{0, 12, 0, 12}, []float64{0.86, 0.78, 0.86, 0.78}},
	RhythmWalking:   {[]int{0, 2, 4, 6}, []int{0, 4, 7, 4}, []float64{0.82, 0.8, 0.84, 0.8}},
}

// RootNoteEngine plays the root of each note cell with a rhythm preset.
// It drives bass tracks and monophonic lead tracks.
type RootNoteEngine struct {
	store      *Store
	trackID    string
	sink       NoteSink
	jitter     Jitter
	baseOctave int
	minMidi    int // notes below are lifted an octave; 0 disables
}

// NewBassEngine plays in octave 2, lifting notes below D2
func NewBassEngine(store *Store, trackID string, sink NoteSink) *RootNoteEngine {
	return &RootNoteEngine{store: store, trackID: trackID, sink: sink, jitter: defaultJitter, baseOctave: 2, minMidi: 38}
}

// NewLeadEngine plays in octave 4
func NewLeadEngine(store *Store, trackID string, sink NoteSink) *RootNoteEngine {
	return &RootNoteEngine{store: store, trackID: trackID, sink: sink, jitter: defaultJitter, baseOctave: 4}
}

// SetJitter replaces the humanize source
func (e *RootNoteEngine) SetJitter(j Jitter) { e.jitter = j }

// ScheduleStep triggers the preset note for this step, if any
func (e *RootNoteEngine) ScheduleStep(ev StepEvent) {
	defer guard("rootnote", ev)
	if ev.Context != ContextArrangement || e.sink == nil || !e.sink.Ready() {
		return
	}
	v, ok := viewTrack(e.store, e.trackID, ev.BarIndex)
	if !ok || !v.audible {
		return
	}
	cell, ok := v.cell.(NoteCell)
	if !ok {
		return
	}

	seg := cell.SegmentAt(ev.StepInBar)
	r := rhythms[v.track.Settings.Rhythm]
	idx := indexOf(r.offsets, ev.StepInBar%8)
	if idx < 0 {
		return
	}

	note := harmony.RootToMidi(seg.Root, e.baseOctave)
	if e.minMidi > 0 && note < e.minMidi {
		note += 12
	}
	note = clampInt(note+r.intervals[idx], 24, 108)

	velocity := r.velocities[idx] * v.track.Volume
	at, velocity := humanize(v.track.Settings.Humanize, e.jitter, ev.Time, velocity)
	velocity = clampFloat(velocity, 0.1, 1)
	duration := math.Max(0.05, ev.Sixteenth*1.75)

	e.sink.TriggerNote(note, at, duration, velocity)
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
