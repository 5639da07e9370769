package sequencer

// DrumEngine plays the loop pattern in loop context and the bar's drum clip
// in arrangement context.
type DrumEngine struct {
	store   *Store
	trackID string
	sink    SampleSink
}

// NewDrumEngine creates a drum engine for one drum track
func NewDrumEngine(store *Store, trackID string, sink SampleSink) *DrumEngine {
	return &DrumEngine{store: store, trackID: trackID, sink: sink}
}

type drumHit struct {
	ref  string
	gain float64
}

// ScheduleStep triggers every lane flagged at the step
func (e *DrumEngine) ScheduleStep(ev StepEvent) {
	defer guard("drum", ev)
	if e.sink == nil || !e.sink.Ready() {
		return
	}

	var hits []drumHit
	e.store.View(func(s *Session) {
		t, ok := s.Track(e.trackID)
		if !ok || !IsAudible(s.Tracks, t) {
			return
		}

		var lanes LanePattern
		var step int
		if ev.Context == ContextArrangement {
			cell, ok := s.Cell(e.trackID, ev.BarIndex).(DrumCell)
			if !ok {
				return
			}
			lanes, step = s.Clip(cell.ClipRef).Lanes, ev.StepInBar
		} else {
			// the loop pattern belongs to the first drum track
			if ids := s.TracksOfKind(KindDrum); len(ids) == 0 || ids[0] != e.trackID {
				return
			}
			lanes, step = s.Pattern, ev.StepInLoop
		}

		for _, lane := range Lanes {
			if !lanes.Hit(lane, step) {
				continue
			}
			ref := t.Settings.Samples[lane]
			if ref == "" {
				continue
			}
			gain := clampFloat(t.Settings.LaneGains[lane]*t.Volume, 0, 1)
			hits = append(hits, drumHit{ref: ref, gain: gain})
		}
	})

	for _, h := range hits {
		e.sink.TriggerSample(h.ref, ev.Time, h.gain)
	}
}
