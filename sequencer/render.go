package sequencer

import (
	"sync"
	"time"
)

// ManualClock is a clock moved by hand, for offline rendering and tests
type ManualClock struct {
	mu  sync.Mutex
	now float64
}

// Now returns the current virtual time
func (c *ManualClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set jumps to t
func (c *ManualClock) Set(t float64) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d seconds
func (c *ManualClock) Advance(d float64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// RenderOptions bounds an offline render. With neither Bars nor Seconds set
// the render runs for the transport's track duration.
type RenderOptions struct {
	Context PlayContext
	Bars    int
	Seconds float64
}

// RenderResult summarises an offline render
type RenderResult struct {
	Steps  int
	Length float64 // seconds from the first step to the end of the last
	Reason StopReason
}

const renderTick = 0.025

// RenderOffline runs a copy of the session through the scheduler on a
// virtual clock, sending every trigger to sinks as fast as possible.
func RenderOffline(store *Store, sinks SinkProvider, opts RenderOptions) RenderResult {
	snap := store.Snapshot()
	if opts.Context != "" {
		snap.Transport.Context = opts.Context
	}
	local := NewStore(snap)

	handlers := BuildHandlers(local, sinks)
	for _, h := range handlers {
		if r, ok := h.(Resetter); ok {
			r.Reset()
		}
	}

	var res RenderResult
	clock := &ManualClock{}
	maxSteps := opts.Bars * StepsPerBar

	var sched *Scheduler
	sched = NewScheduler(local, clock, Options{
		Manual:    true,
		Lookahead: 120 * time.Millisecond,
		OnStep: func(ev StepEvent) {
			if opts.Seconds > 0 && ev.Time >= opts.Seconds {
				sched.Stop()
				return
			}
			for _, h := range handlers {
				h.ScheduleStep(ev)
			}
			res.Steps++
			res.Length = ev.Time + ev.Sixteenth
			if maxSteps > 0 && res.Steps >= maxSteps {
				sched.Stop()
			}
		},
		OnStop: func(r StopReason) { res.Reason = r },
	})

	sched.Start()
	for sched.IsRunning() {
		clock.Advance(renderTick)
		sched.Advance()
	}
	return res
}
