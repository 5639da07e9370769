package sequencer

import (
	"math"

	"go-backtrack/harmony"
)

// PadEngine holds one chord per segment, built from the segment root with
// the track's harmony mode.
type PadEngine struct {
	store   *Store
	trackID string
	sink    NoteSink
}

// NewPadEngine creates a pad engine for one pad track
func NewPadEngine(store *Store, trackID string, sink NoteSink) *PadEngine {
	return &PadEngine{store: store, trackID: trackID, sink: sink}
}

// ScheduleStep starts the segment chord on the segment's first step
func (e *PadEngine) ScheduleStep(ev StepEvent) {
	defer guard("pad", ev)
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
	if !seg.IsStart {
		return
	}

	st := v.track.Settings
	notes := harmony.BuildHarmonyMidi(seg.Root, st.Octave, st.Mode, st.Scale)
	duration := math.Max(0.12, ev.Sixteenth*float64(seg.Length))
	velocity := clampFloat(v.track.Volume*0.78, 0.04, 1)
	for _, n := range notes {
		e.sink.TriggerNote(n, ev.Time, duration, velocity)
	}
}
