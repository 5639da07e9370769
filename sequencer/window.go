package sequencer

// Window is the span of steps the scheduler cycles through
type Window struct {
	Context    PlayContext
	TotalSteps int // always a positive multiple of 16
	BarOffset  int // absolute bar of window step 0
}

// ResolveWindow derives the playback window from the transport.
// Out-of-range inputs are clamped, never rejected.
func ResolveWindow(t Transport) Window {
	if t.Context != ContextArrangement {
		return Window{
			Context:    ContextLoop,
			TotalSteps: NormalizeLoopBars(t.LoopBars) * StepsPerBar,
		}
	}

	bars := NormalizeArrangementBars(t.ArrangementBars)
	if !t.LoopRange.Enabled {
		return Window{Context: ContextArrangement, TotalSteps: bars * StepsPerBar}
	}

	r := normalizeLoopRange(t.LoopRange, bars)
	return Window{
		Context:    ContextArrangement,
		TotalSteps: max(StepsPerBar, (r.EndBar-r.StartBar+1)*StepsPerBar),
		BarOffset:  r.StartBar,
	}
}

// Locate maps a wrapped step to its bar and step within the bar
func (w Window) Locate(stepInLoop int) (bar, stepInBar int) {
	return w.BarOffset + stepInLoop/StepsPerBar, stepInLoop % StepsPerBar
}
