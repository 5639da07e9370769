package midi

import "container/heap"

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a MIDI message due at an audio time
type Event struct {
	At       float64 // seconds on the output clock
	Type     uint8   // NoteOn, NoteOff, CC
	Channel  uint8   // 0-based
	Note     uint8   // note, or controller number for CC
	Velocity uint8   // velocity, or value for CC
	seq      uint64
}

// eventQueue is a min-heap by time. At equal times note-offs go first so a
// retriggered note is not cut by its own release.
type eventQueue []Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].At != q[j].At {
		return q[i].At < q[j].At
	}
	if (q[i].Type == NoteOff) != (q[j].Type == NoteOff) {
		return q[i].Type == NoteOff
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(Event)) }

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

func (q *eventQueue) push(ev Event) { heap.Push(q, ev) }

func (q *eventQueue) pop() Event { return heap.Pop(q).(Event) }
