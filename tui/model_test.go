package tui

import (
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-backtrack/harmony"
	"go-backtrack/midi"
	"go-backtrack/sequencer"
	"go-backtrack/theme"
)

type silentSink struct{}

func (silentSink) Ready() bool                                { return true }
func (silentSink) TriggerNote(int, float64, float64, float64) {}
func (silentSink) TriggerSample(string, float64, float64)     {}

type silentSinks struct{}

func (silentSinks) NoteSink(sequencer.Track) sequencer.NoteSink     { return silentSink{} }
func (silentSinks) SampleSink(sequencer.Track) sequencer.SampleSink { return silentSink{} }
func (silentSinks) ClickSink() sequencer.NoteSink                   { return silentSink{} }

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := sequencer.NewStore(nil)
	mgr := sequencer.NewManager(store, &sequencer.ManualClock{}, silentSinks{}, sequencer.Options{
		Manual:    true,
		Lookahead: 100 * time.Millisecond,
	})
	return NewModel(mgr, nil, theme.New(nil), filepath.Join(t.TempDir(), "song.yaml"))
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestLoopEditing(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "j", "l", "x")

	s := m.Manager.Store().Snapshot()
	assert.True(t, s.Pattern.Hit("snare", 1))

	m = press(m, "b")
	assert.Equal(t, 2, m.Manager.Store().Transport().LoopBars)

	m = press(m, "P")
	assert.Equal(t, sequencer.BuildPreset("Rock", 2), m.Manager.Store().Snapshot().Pattern)
	m = press(m, "P")
	assert.Equal(t, sequencer.BuildPreset("Pop", 2), m.Manager.Store().Snapshot().Pattern)
}

func TestTransportKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "+", "+", ".", "m", "M")

	tr := m.Manager.Store().Transport()
	assert.Equal(t, 120.0, tr.BPM)
	assert.Equal(t, 5.0, tr.SwingPercent)
	assert.False(t, tr.Metronome.Enabled)
	assert.Equal(t, sequencer.SubdivisionEighth, tr.Metronome.Subdivision)

	m = press(m, "space")
	assert.True(t, m.Manager.IsPlaying())
	assert.Contains(t, ansi.Strip(m.View()), "PLAY")
	m = press(m, "space")
	assert.False(t, m.Manager.IsPlaying())
	assert.Contains(t, ansi.Strip(m.View()), "STOP")
}

func TestArrangementEditing(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "tab")
	assert.Equal(t, sequencer.ContextArrangement, m.Manager.Store().Transport().Context)

	// drums row: place the shared clip
	m = press(m, "x")
	store := m.Manager.Store()
	assert.Equal(t, sequencer.DrumCell{ClipRef: sequencer.SharedClipRef}, store.Snapshot().Cell("drums", 0))

	// bass row: new cell, then transpose and split
	m = press(m, "j", "n", "n", "n", "s")
	assert.Equal(t, sequencer.NoteCell{Root: "D", Split: true, SecondRoot: "A"}, store.Snapshot().Cell("bass", 0))

	// piano row on bar 2: chord cell, quality cycle
	m = press(m, "j", "l", "n", "c")
	cell, ok := store.Snapshot().Cell("piano", 1).(sequencer.ChordCell)
	require.True(t, ok)
	assert.Equal(t, harmony.NewChord("C", harmony.Minor, ""), cell.Chord)

	m = press(m, "d")
	assert.Nil(t, store.Snapshot().Cell("piano", 1))

	m = press(m, "t")
	piano, _ := store.Snapshot().Track("piano")
	assert.True(t, piano.Mute)

	m = press(m, "[", "l", "l", "]")
	assert.Equal(t, sequencer.LoopRange{Enabled: true, StartBar: 1, EndBar: 3}, store.Transport().LoopRange)

	view := ansi.Strip(m.View())
	assert.Contains(t, view, "ARRANGE")
	assert.Contains(t, view, "range:2-4")
}

func TestArrangementScroll(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "tab", "L", "L", "L")
	assert.Equal(t, 24, m.bar)
	assert.Equal(t, 24-stripBars+1, m.scroll)
	m = press(m, "H", "H", "H", "H")
	assert.Equal(t, 0, m.bar)
	assert.Equal(t, 0, m.scroll)
}

func TestSaveSong(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "tab", "j", "n", "ctrl+s")
	assert.Contains(t, m.status, "saved")

	s, err := sequencer.LoadSong(m.SongPath)
	require.NoError(t, err)
	assert.Equal(t, sequencer.NoteCell{Root: "C"}, s.Cell("bass", 0))

	m.SongPath = ""
	m = press(m, "ctrl+s")
	assert.Equal(t, "no song file", m.status)
}

func TestPortEvents(t *testing.T) {
	m := newTestModel(t)
	assert.Contains(t, ansi.Strip(m.View()), "no output")

	next, _ := m.Update(PortEventMsg(midi.PortEvent{Type: midi.PortConnected, Name: "IAC Bus"}))
	m = next.(Model)
	assert.Contains(t, ansi.Strip(m.View()), "[IAC Bus]")

	next, _ = m.Update(PortEventMsg(midi.PortEvent{Type: midi.PortDisconnected, Name: "IAC Bus"}))
	m = next.(Model)
	assert.Equal(t, "lost IAC Bus", m.status)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "space")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.False(t, next.(Model).Manager.IsPlaying())
	assert.Empty(t, next.(Model).View())
}
