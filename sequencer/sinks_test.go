package sequencer

import "sync"

type playedNote struct {
	Note     int
	At       float64
	Duration float64
	Velocity float64
}

type playedSample struct {
	Ref  string
	At   float64
	Gain float64
}

type noteRecorder struct {
	mu       sync.Mutex
	notReady bool
	notes    []playedNote
}

func (r *noteRecorder) Ready() bool { return !r.notReady }

func (r *noteRecorder) TriggerNote(note int, at, duration, velocity float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, playedNote{note, at, duration, velocity})
}

func (r *noteRecorder) played() []playedNote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]playedNote(nil), r.notes...)
}

func (r *noteRecorder) pitches() []int {
	var out []int
	for _, n := range r.played() {
		out = append(out, n.Note)
	}
	return out
}

func (r *noteRecorder) reset() {
	r.mu.Lock()
	r.notes = nil
	r.mu.Unlock()
}

type sampleRecorder struct {
	mu       sync.Mutex
	notReady bool
	hits     []playedSample
}

func (r *sampleRecorder) Ready() bool { return !r.notReady }

func (r *sampleRecorder) TriggerSample(ref string, at, gain float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits = append(r.hits, playedSample{ref, at, gain})
}

func (r *sampleRecorder) refs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, h := range r.hits {
		out = append(out, h.Ref)
	}
	return out
}

// recordingSinks hands out one recorder per track
type recordingSinks struct {
	mu       sync.Mutex
	notes    map[string]*noteRecorder
	samples  map[string]*sampleRecorder
	click    noteRecorder
	silenced int
}

func newRecordingSinks() *recordingSinks {
	return &recordingSinks{
		notes:   map[string]*noteRecorder{},
		samples: map[string]*sampleRecorder{},
	}
}

func (s *recordingSinks) NoteSink(t Track) NoteSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notes[t.ID] == nil {
		s.notes[t.ID] = &noteRecorder{}
	}
	return s.notes[t.ID]
}

func (s *recordingSinks) SampleSink(t Track) SampleSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.samples[t.ID] == nil {
		s.samples[t.ID] = &sampleRecorder{}
	}
	return s.samples[t.ID]
}

func (s *recordingSinks) ClickSink() NoteSink { return &s.click }

func (s *recordingSinks) AllNotesOff() {
	s.mu.Lock()
	s.silenced++
	s.mu.Unlock()
}

func (s *recordingSinks) silenceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.silenced
}

func noJitter(float64) float64 { return 0 }

func arrangementStep(bar, stepInBar int) StepEvent {
	return StepEvent{
		StepIndex:  bar*StepsPerBar + stepInBar,
		StepInLoop: bar*StepsPerBar + stepInBar,
		StepInBar:  stepInBar,
		BarIndex:   bar,
		Context:    ContextArrangement,
		Time:       1,
		Sixteenth:  0.125,
	}
}

func loopStep(step int) StepEvent {
	return StepEvent{
		StepIndex:  step,
		StepInLoop: step,
		StepInBar:  step % StepsPerBar,
		BarIndex:   step / StepsPerBar,
		Context:    ContextLoop,
		Time:       1,
		Sixteenth:  0.125,
	}
}
