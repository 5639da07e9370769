package sequencer

import (
	"math/rand"

	"go-backtrack/debug"
)

// NoteSink plays pitched notes at audio times
type NoteSink interface {
	Ready() bool
	TriggerNote(note int, at, duration, velocity float64)
}

// SampleSink plays one-shot drum sounds at audio times
type SampleSink interface {
	Ready() bool
	TriggerSample(ref string, at, gain float64)
}

// Silencer is implemented by sinks that can cut sounding notes on stop
type Silencer interface {
	AllNotesOff()
}

// StepHandler reacts to one scheduled step. It must not block and never
// reports failure: missing data or an unready sink means silence.
type StepHandler interface {
	ScheduleStep(ev StepEvent)
}

// Resetter is implemented by handlers holding per-run state
type Resetter interface {
	Reset()
}

// Jitter returns a uniform random value in [-spread, spread]
type Jitter func(spread float64) float64

func defaultJitter(spread float64) float64 {
	return (rand.Float64()*2 - 1) * spread
}

const (
	humanizeVelocity = 0.05
	humanizeTiming   = 0.005 // seconds
)

// humanize applies the track's jitter settings to a trigger
func humanize(h Humanize, j Jitter, at, velocity float64) (float64, float64) {
	if h.Velocity {
		velocity *= 1 + j(humanizeVelocity)
	}
	if h.Timing {
		at += j(humanizeTiming)
	}
	return at, velocity
}

// guard keeps a panicking engine from reaching the scheduler
func guard(engine string, ev StepEvent) {
	if r := recover(); r != nil {
		debug.Log("engine", "%s panic at step %d: %v", engine, ev.StepIndex, r)
	}
}

// trackView captures what an engine needs from the store for one step
type trackView struct {
	track   Track
	audible bool
	cell    Cell
}

func viewTrack(store *Store, trackID string, bar int) (trackView, bool) {
	var v trackView
	var ok bool
	store.View(func(s *Session) {
		v.track, ok = s.Track(trackID)
		if !ok {
			return
		}
		v.audible = IsAudible(s.Tracks, v.track)
		v.cell = s.Cell(trackID, bar)
	})
	return v, ok
}
