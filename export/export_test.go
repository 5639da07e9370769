package export

import (
	"path/filepath"
	"testing"

	"go-backtrack/midi"
	"go-backtrack/sequencer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func channels(t sequencer.Track) int {
	if t.Kind == sequencer.KindDrum {
		return 10
	}
	return 1
}

func noteOns(tr smf.Track) int {
	n := 0
	for _, ev := range tr {
		m := ev.Message
		if len(m) == 3 && m[0]&0xF0 == 0x90 && m[2] > 0 {
			n++
		}
	}
	return n
}

func TestRecorderSinks(t *testing.T) {
	rec := NewRecorder(midi.GetKit("gm"), channels, 9)
	drums := sequencer.Track{ID: "drums", Kind: sequencer.KindDrum}
	bass := sequencer.Track{ID: "bass", Kind: sequencer.KindBass}

	rec.SampleSink(drums).TriggerSample("kick", 0, 1)
	rec.SampleSink(drums).TriggerSample("nope", 0, 1)
	rec.NoteSink(bass).TriggerNote(40, 0.5, 0.25, 0.5)
	rec.NoteSink(bass).TriggerNote(-1, 0.5, 0.25, 0.5)
	rec.ClickSink().TriggerNote(sequencer.ClickNote, 1, 0.045, 0.4)

	notes := rec.Notes()
	require.Len(t, notes, 3)
	assert.Equal(t, Note{Track: "drums", Channel: 9, Key: 36, At: 0, Duration: hitLength, Velocity: 127}, notes[0])
	assert.Equal(t, uint8(0), notes[1].Channel)
	assert.Equal(t, uint8(64), notes[1].Velocity)
	assert.Equal(t, uint8(8), notes[2].Channel)
	assert.Equal(t, []string{"drums", "bass", ClickTrack}, rec.Tracks())
}

func TestSMFLayout(t *testing.T) {
	rec := NewRecorder(midi.GetKit("gm"), channels, 10)
	lead := sequencer.Track{ID: "lead", Kind: sequencer.KindLead}
	rec.NoteSink(lead).TriggerNote(60, 0, 0.5, 1)
	rec.NoteSink(lead).TriggerNote(60, 0.5, 0.5, 1)

	sm, err := rec.SMF(120)
	require.NoError(t, err)
	require.Len(t, sm.Tracks, 2)

	// at 120 bpm half a second is one quarter
	tr := sm.Tracks[1]
	var ticks []uint32
	var abs uint32
	for _, ev := range tr {
		abs += ev.Delta
		m := ev.Message
		if len(m) == 3 && m[0]&0xF0 == 0x90 && m[2] > 0 {
			ticks = append(ticks, abs)
		}
	}
	assert.Equal(t, []uint32{0, TicksPerQuarter}, ticks)
	assert.Equal(t, 2, noteOns(tr))

	_, err = rec.SMF(0)
	assert.Error(t, err)
}

func TestRenderToFile(t *testing.T) {
	store := sequencer.NewStore(nil)
	rec := NewRecorder(midi.GetKit("gm"), channels, 10)

	res := sequencer.RenderOffline(store, rec, sequencer.RenderOptions{Bars: 1})
	require.Equal(t, sequencer.StepsPerBar, res.Steps)
	require.NotEmpty(t, rec.Notes())
	assert.Contains(t, rec.Tracks(), "drums")
	assert.Contains(t, rec.Tracks(), ClickTrack)

	path := filepath.Join(t.TempDir(), "loop.mid")
	require.NoError(t, rec.WriteFile(path, store.Transport().BPM))

	rd, err := smf.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, rd.Tracks, 1+len(rec.Tracks()))

	tempos := rd.TempoChanges()
	require.NotEmpty(t, tempos)
	assert.InDelta(t, float64(sequencer.DefaultBPM), tempos[0].BPM, 0.01)

	total := 0
	for _, tr := range rd.Tracks {
		total += noteOns(tr)
	}
	assert.Equal(t, len(rec.Notes()), total)
}
