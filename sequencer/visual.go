package sequencer

import (
	"time"

	"go-backtrack/debug"
)

// visualQueue delivers step notifications close to the moment the step is
// heard. One queue per run; closing done drops everything still queued.
// deliver reports false once the run has ended.
type visualQueue struct {
	clock   Clock
	deliver func(StepEvent) bool
	done    <-chan struct{}
	events  chan StepEvent
}

func newVisualQueue(clock Clock, deliver func(StepEvent) bool, done <-chan struct{}) *visualQueue {
	return &visualQueue{
		clock:   clock,
		deliver: deliver,
		done:    done,
		events:  make(chan StepEvent, 256),
	}
}

func (q *visualQueue) push(ev StepEvent) {
	select {
	case q.events <- ev:
	default:
		debug.LogEvery(50, "visual", "queue full, dropping step %d", ev.StepIndex)
	}
}

func (q *visualQueue) run() {
	for {
		select {
		case <-q.done:
			return
		case ev := <-q.events:
			if wait := ev.Time - q.clock.Now(); wait > 0 {
				timer := time.NewTimer(time.Duration(wait * float64(time.Second)))
				select {
				case <-q.done:
					timer.Stop()
					return
				case <-timer.C:
				}
			}
			if !q.deliver(ev) {
				return
			}
		}
	}
}
