package sequencer

import (
	"sync"
	"time"

	"go-backtrack/debug"
)

// Clock reports audio time in seconds
type Clock interface {
	Now() float64
}

// SystemClock is a monotonic clock starting at zero when created
type SystemClock struct {
	t0 time.Time
}

// NewSystemClock creates a clock reading zero now
func NewSystemClock() *SystemClock {
	return &SystemClock{t0: time.Now()}
}

// Now returns seconds since creation
func (c *SystemClock) Now() float64 {
	return time.Since(c.t0).Seconds()
}

// StopReason says why playback ended
type StopReason string

const (
	StopManual StopReason = "manual"
	StopAuto   StopReason = "auto" // track duration reached
)

// StepEvent describes one scheduled sixteenth
type StepEvent struct {
	StepIndex  int // steps since Start
	StepInLoop int // position in the playback window
	StepInBar  int
	BarIndex   int // absolute bar
	Context    PlayContext
	Time       float64 // audio time, swing applied
	Sixteenth  float64 // seconds per step at the current tempo
}

// TransportSource supplies the live transport; read once per step
type TransportSource interface {
	Transport() Transport
}

// Options configures a Scheduler
type Options struct {
	TickInterval    time.Duration
	Lookahead       time.Duration
	StartOffset     time.Duration
	ResyncThreshold time.Duration // 0 disables clock-jump recovery

	// Manual disables the internal ticker; the owner calls Advance
	Manual bool

	OnStep   func(StepEvent)
	// OnVisual runs on the visual goroutine and must not call Stop
	OnVisual func(StepEvent)
	OnStop   func(StopReason)
}

// DefaultOptions returns the standard real-time timing
func DefaultOptions() Options {
	return Options{
		TickInterval:    25 * time.Millisecond,
		Lookahead:       120 * time.Millisecond,
		StartOffset:     30 * time.Millisecond,
		ResyncThreshold: 250 * time.Millisecond,
	}
}

// Scheduler is a lookahead step scheduler. A ticker wakes it every
// TickInterval and it emits every step whose time falls before
// now+Lookahead, so triggers reach the sink ahead of time.
type Scheduler struct {
	transport TransportSource
	clock     Clock
	opts      Options

	scanMu   sync.Mutex // one scan at a time
	visualMu sync.Mutex // held while OnVisual runs; halt waits for it

	mu           sync.Mutex
	running      bool
	gen          uint64
	scanning     bool
	pendingStop  bool
	stopReason   StopReason
	nextNoteTime float64
	stopAt       float64
	step         int
	stepInLoop   int
	done         chan struct{}
	visual       *visualQueue
}

// NewScheduler creates an idle scheduler. Zero timing fields in opts
// take the default values.
func NewScheduler(transport TransportSource, clock Clock, opts Options) *Scheduler {
	def := DefaultOptions()
	if opts.TickInterval <= 0 {
		opts.TickInterval = def.TickInterval
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = def.Lookahead
	}
	if opts.StartOffset < 0 {
		opts.StartOffset = 0
	}
	if opts.ResyncThreshold < 0 {
		opts.ResyncThreshold = 0
	}
	return &Scheduler{transport: transport, clock: clock, opts: opts}
}

// IsRunning reports whether the scheduler is playing
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start begins playback. It returns false if already running.
// The first scan happens before Start returns. Start waits for a scan still
// finishing from the previous run, so it must not be called from OnStep.
func (s *Scheduler) Start() bool {
	if s.IsRunning() {
		return false
	}
	s.scanMu.Lock()

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.scanMu.Unlock()
		return false
	}
	s.running = true
	s.gen++
	gen := s.gen

	tr := s.transport.Transport()
	s.nextNoteTime = s.clock.Now() + s.opts.StartOffset.Seconds()
	s.stopAt = s.nextNoteTime + ClampTrackMinutes(tr.TrackMinutes)*60
	s.step = 0
	s.stepInLoop = 0
	s.done = make(chan struct{})
	done := s.done

	s.visual = nil
	if s.opts.OnVisual != nil {
		s.visual = newVisualQueue(s.clock, func(ev StepEvent) bool { return s.deliverVisual(gen, ev) }, done)
		go s.visual.run()
	}
	stopAt := s.stopAt
	s.mu.Unlock()

	debug.Log("sched", "start gen=%d bpm=%.1f context=%s stopAt=%.2f", gen, tr.BPM, tr.Context, stopAt)

	s.advanceLocked()
	if !s.opts.Manual {
		go s.tickLoop(done)
	}
	return true
}

// Stop ends playback. OnStop fires once, after any scan in progress.
func (s *Scheduler) Stop() {
	s.halt(StopManual)
}

// Advance runs one scan: every step due before now+Lookahead is emitted.
// Called by the ticker; in Manual mode the owner calls it.
func (s *Scheduler) Advance() {
	s.scanMu.Lock()
	s.advanceLocked()
}

// advanceLocked scans and releases scanMu, then fires a stop that was
// requested during the scan.
func (s *Scheduler) advanceLocked() {
	s.mu.Lock()
	s.scanning = true
	s.mu.Unlock()

	s.scan()

	s.mu.Lock()
	s.scanning = false
	fire := s.pendingStop
	s.pendingStop = false
	reason := s.stopReason
	s.mu.Unlock()
	s.scanMu.Unlock()

	if fire {
		s.notifyStop(reason)
	}
}

func (s *Scheduler) scan() {
	lookahead := s.opts.Lookahead.Seconds()
	for {
		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			return
		}
		tr := s.transport.Transport()
		six := SixteenthSeconds(tr.BPM)
		now := s.clock.Now()
		s.resync(now, six)
		if s.nextNoteTime >= now+lookahead {
			s.mu.Unlock()
			return
		}

		w := ResolveWindow(tr)
		s.stepInLoop %= w.TotalSteps
		stepTime := s.nextNoteTime
		if s.stepInLoop%2 == 1 {
			stepTime += ClampSwing(tr.SwingPercent) / 100 * six
		}
		if stepTime >= s.stopAt {
			s.mu.Unlock()
			debug.Log("sched", "auto stop at %.3f", stepTime)
			s.halt(StopAuto)
			return
		}

		bar, inBar := w.Locate(s.stepInLoop)
		ev := StepEvent{
			StepIndex:  s.step,
			StepInLoop: s.stepInLoop,
			StepInBar:  inBar,
			BarIndex:   bar,
			Context:    w.Context,
			Time:       stepTime,
			Sixteenth:  six,
		}
		s.nextNoteTime += six
		s.step++
		s.stepInLoop = (s.stepInLoop + 1) % w.TotalSteps
		vq := s.visual
		s.mu.Unlock()

		s.emit(ev)
		if vq != nil {
			vq.push(ev)
		}
	}
}

// halt leaves Running. OnStop is deferred to the end of an active scan so
// it always follows the last emitted step.
func (s *Scheduler) halt(reason StopReason) {
	s.visualMu.Lock()
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		s.visualMu.Unlock()
		return
	}
	s.running = false
	s.gen++
	close(s.done)
	s.stopReason = reason
	deferred := s.scanning
	if deferred {
		s.pendingStop = true
	}
	s.mu.Unlock()
	s.visualMu.Unlock()

	debug.Log("sched", "stop reason=%s", reason)
	if !deferred {
		s.notifyStop(reason)
	}
}

func (s *Scheduler) notifyStop(reason StopReason) {
	if s.opts.OnStop == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Log("sched", "stop handler panic: %v", r)
		}
	}()
	s.opts.OnStop(reason)
}

func (s *Scheduler) emit(ev StepEvent) {
	if s.opts.OnStep == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Log("sched", "step handler panic at step %d: %v", ev.StepIndex, r)
		}
	}()
	s.opts.OnStep(ev)
}

// resync realigns the timeline after the clock jumped, instead of
// replaying a backlog or stalling. Caller holds mu.
func (s *Scheduler) resync(now, six float64) {
	thr := s.opts.ResyncThreshold.Seconds()
	if thr <= 0 {
		return
	}
	behind := now - s.nextNoteTime
	ahead := s.nextNoteTime - now
	if behind <= thr && ahead <= s.opts.Lookahead.Seconds()+six+thr {
		return
	}
	target := now + s.opts.StartOffset.Seconds()
	delta := target - s.nextNoteTime
	s.nextNoteTime = target
	s.stopAt += delta
	debug.Log("sched", "clock jump %.3fs, resynced", -delta)
}

// deliverVisual runs OnVisual for ev unless run gen has ended. halt takes
// visualMu as well, so no notification is delivered once Stop returns.
func (s *Scheduler) deliverVisual(gen uint64, ev StepEvent) bool {
	s.visualMu.Lock()
	defer s.visualMu.Unlock()
	if !s.current(gen) {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			debug.Log("sched", "visual handler panic at step %d: %v", ev.StepIndex, r)
		}
	}()
	s.opts.OnVisual(ev)
	return true
}

func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

func (s *Scheduler) tickLoop(done chan struct{}) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.Advance()
		}
	}
}
