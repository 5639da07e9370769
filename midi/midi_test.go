package midi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-backtrack/sequencer"

	gomidi "gitlab.com/gomidi/midi/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePort struct {
	mu   sync.Mutex
	open bool
	sent []gomidi.Message
}

func (p *fakePort) Sender() Sender {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return nil
	}
	return func(msg gomidi.Message) error {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.sent = append(p.sent, msg)
		return nil
	}
}

func (p *fakePort) messages() []gomidi.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gomidi.Message(nil), p.sent...)
}

func fixedChannel(ch int) func(sequencer.Track) int {
	return func(sequencer.Track) int { return ch }
}

func TestEventQueueOrder(t *testing.T) {
	var q eventQueue
	q.push(Event{At: 1.0, Type: NoteOn, Note: 60, seq: 1})
	q.push(Event{At: 0.5, Type: NoteOn, Note: 62, seq: 2})
	q.push(Event{At: 1.0, Type: NoteOff, Note: 60, seq: 3})
	q.push(Event{At: 1.0, Type: NoteOn, Note: 64, seq: 4})

	var got []Event
	for len(q) > 0 {
		got = append(got, q.pop())
	}
	require.Len(t, got, 4)
	assert.Equal(t, uint8(62), got[0].Note)
	assert.Equal(t, NoteOff, got[1].Type, "note-off wins at equal time")
	assert.Equal(t, uint64(1), got[2].seq)
	assert.Equal(t, uint64(4), got[3].seq)
}

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "IAC Driver Bus 1", "RD-8 MIDI 1"}

	tests := []struct {
		want   string
		expect string
		ok     bool
	}{
		{"", "Midi Through Port-0", true},
		{"IAC Driver Bus 1", "IAC Driver Bus 1", true},
		{"rd-8", "RD-8 MIDI 1", true},
		{"Launchpad", "", false},
	}
	for _, tt := range tests {
		got, ok := MatchPort(names, tt.want)
		assert.Equal(t, tt.ok, ok, tt.want)
		assert.Equal(t, tt.expect, got, tt.want)
	}

	_, ok := MatchPort(nil, "")
	assert.False(t, ok)
}

func TestKitNote(t *testing.T) {
	n, ok := GetKit("rd8").Note("snare")
	assert.True(t, ok)
	assert.Equal(t, uint8(40), n)

	n, ok = GetKit("nope").Note("kick")
	assert.True(t, ok, "unknown kit falls back to gm")
	assert.Equal(t, uint8(36), n)

	n, ok = GetKit("gm").Note("57")
	assert.True(t, ok)
	assert.Equal(t, uint8(57), n)

	_, ok = GetKit("er1").Note("shaker")
	assert.False(t, ok)
	_, ok = GetKit("gm").Note("200")
	assert.False(t, ok)

	for _, name := range KitNames() {
		assert.Contains(t, Kits, name)
	}
}

func TestVelocityAndChannel(t *testing.T) {
	assert.Equal(t, uint8(1), Velocity(0))
	assert.Equal(t, uint8(127), Velocity(1))
	assert.Equal(t, uint8(127), Velocity(3))
	assert.Equal(t, uint8(64), Velocity(0.5))

	assert.Equal(t, uint8(0), WireChannel(1))
	assert.Equal(t, uint8(9), WireChannel(10))
	assert.Equal(t, uint8(0), WireChannel(0))
	assert.Equal(t, uint8(0), WireChannel(17))
}

func TestOutputSinksEnqueue(t *testing.T) {
	port := &fakePort{}
	out := NewOutput(port, &sequencer.ManualClock{}, GetKit("gm"), fixedChannel(10), 9)
	assert.False(t, out.Ready())

	port.open = true
	assert.True(t, out.Ready())

	drums := out.SampleSink(sequencer.Track{ID: "drums", Kind: sequencer.KindDrum})
	drums.TriggerSample("kick", 1.0, 0.9)
	drums.TriggerSample("unknown", 1.0, 0.9)
	drums.TriggerSample("snare", 1.0, 0)
	assert.Equal(t, 2, out.Pending(), "unknown refs and silent hits are dropped")

	out.ClickSink().TriggerNote(sequencer.ClickAccentNote, 1.0, 0.045, 1)
	out.ClickSink().TriggerNote(300, 1.0, 0.045, 1)
	assert.Equal(t, 4, out.Pending())
}

func TestOutputRunDispatchesDueEvents(t *testing.T) {
	port := &fakePort{open: true}
	clock := &sequencer.ManualClock{}
	clock.Set(10)
	out := NewOutput(port, clock, GetKit("gm"), fixedChannel(3), 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		out.Run(ctx)
		close(done)
	}()

	out.NoteSink(sequencer.Track{ID: "piano", Kind: sequencer.KindPiano}).TriggerNote(60, 9.0, 0.5, 1)

	require.Eventually(t, func() bool { return len(port.messages()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := port.messages()
	assert.Equal(t, gomidi.NoteOn(2, 60, 127), msgs[0])
	assert.Equal(t, gomidi.NoteOff(2, 60), msgs[1])
	assert.Equal(t, 0, out.Pending())

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestOutputAllNotesOff(t *testing.T) {
	port := &fakePort{open: true}
	out := NewOutput(port, &sequencer.ManualClock{}, GetKit("gm"), fixedChannel(1), 10)

	out.NoteSink(sequencer.Track{ID: "bass", Kind: sequencer.KindBass}).TriggerNote(40, 5, 1, 0.8)
	require.Equal(t, 2, out.Pending())

	out.AllNotesOff()
	assert.Equal(t, 0, out.Pending())

	msgs := port.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, gomidi.NoteOff(0, 40), msgs[0])
	assert.Equal(t, gomidi.ControlChange(0, 123, 0), msgs[1])
}

func TestPortWatcherHotPlug(t *testing.T) {
	names := []string{"IAC Driver Bus 1"}
	var listErr error
	opened := 0

	w := NewPortWatcher("iac")
	w.list = func() ([]string, error) { return names, listErr }
	w.open = func(name string) (Sender, error) {
		opened++
		return func(gomidi.Message) error { return nil }, nil
	}

	w.scan()
	assert.Equal(t, "IAC Driver Bus 1", w.Name())
	assert.NotNil(t, w.Sender())
	assert.Equal(t, PortEvent{Type: PortConnected, Name: "IAC Driver Bus 1"}, <-w.Events())

	w.scan()
	assert.Equal(t, 1, opened, "connected port is not reopened")

	listErr = ErrPortsHung
	w.scan()
	assert.NotNil(t, w.Sender(), "hung listing keeps the current port")

	listErr = nil
	names = nil
	w.scan()
	assert.Nil(t, w.Sender())
	assert.Equal(t, PortEvent{Type: PortDisconnected, Name: "IAC Driver Bus 1"}, <-w.Events())

	names = []string{"IAC Driver Bus 1"}
	w.open = func(string) (Sender, error) { return nil, errors.New("busy") }
	w.scan()
	assert.Nil(t, w.Sender())
	assert.Empty(t, w.Name())
}
