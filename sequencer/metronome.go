package sequencer

// Click pitches on the click sink (GM wood blocks)
const (
	ClickAccentNote = 76
	ClickNote       = 77
	clickDuration   = 0.045
)

// ShouldTriggerMetronomeStep reports whether the metronome clicks at stepInBar
func ShouldTriggerMetronomeStep(stepInBar int, sub Subdivision) bool {
	switch NormalizeSubdivision(sub) {
	case SubdivisionHalf:
		return stepInBar%8 == 0
	case SubdivisionEighth:
		return stepInBar%2 == 0
	case SubdivisionSixteenth:
		return true
	}
	return stepInBar%4 == 0
}

// MetronomeEngine clicks on the transport's subdivision in both contexts
type MetronomeEngine struct {
	transport TransportSource
	sink      NoteSink
}

// NewMetronomeEngine creates a metronome reading settings from transport
func NewMetronomeEngine(transport TransportSource, sink NoteSink) *MetronomeEngine {
	return &MetronomeEngine{transport: transport, sink: sink}
}

// ScheduleStep clicks when the step falls on the subdivision
func (e *MetronomeEngine) ScheduleStep(ev StepEvent) {
	defer guard("metronome", ev)
	if e.sink == nil || !e.sink.Ready() {
		return
	}
	m := e.transport.Transport().Metronome
	if !m.Enabled || m.Volume <= 0 || !ShouldTriggerMetronomeStep(ev.StepInBar, m.Subdivision) {
		return
	}
	note, velocity := ClickNote, 0.8*m.Volume
	if m.AccentBeatOne && ev.StepInBar == 0 {
		note, velocity = ClickAccentNote, m.Volume
	}
	e.sink.TriggerNote(note, ev.Time, clickDuration, clampFloat(velocity, 0, 1))
}
