package sequencer

import (
	"testing"

	"go-backtrack/harmony"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	s := NewSession()
	require.Len(t, s.Tracks, 3)
	assert.Equal(t, []string{"drums"}, s.TracksOfKind(KindDrum))
	assert.Equal(t, ContextLoop, s.Transport.Context)
	assert.Equal(t, BuildPreset("Rock", 1), s.Pattern)
	assert.Equal(t, s.Pattern.Resize(StepsPerBar), s.Clips[SharedClipRef].Lanes)

	drums, ok := s.Track("drums")
	require.True(t, ok)
	assert.Len(t, drums.Settings.LaneGains, len(Lanes))
	assert.Equal(t, "kick", drums.Settings.Samples["kick"])
}

func TestSessionNormalizeTracks(t *testing.T) {
	s := &Session{Tracks: []Track{
		{ID: "keys", Kind: KindPiano, Volume: 4},
		{ID: "keys", Kind: KindBass},
		{ID: "", Kind: KindBass},
		{ID: "x", Kind: "theremin"},
	}}
	s.Normalize()

	ids := make([]string, 0, len(s.Tracks))
	for _, tr := range s.Tracks {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"keys", "drums", "bass", "piano"}, ids)
	assert.Equal(t, 1.0, s.Tracks[0].Volume)
	assert.Equal(t, "keys", s.Tracks[0].Name)
	assert.Equal(t, StyleBlock, s.Tracks[0].Settings.Style)
	assert.Equal(t, harmony.DefaultRange, s.Tracks[0].Settings.Voicing)
}

func TestSessionNormalizeCells(t *testing.T) {
	store := NewStore(nil)
	store.SetTransport(func(tr *Transport) { tr.ArrangementBars = 8 })

	store.SetCell("bass", 2, NoteCell{Root: "Bb"})
	store.SetCell("bass", 3, DrumCell{ClipRef: "x"})
	store.SetCell("bass", 9, NoteCell{Root: "C"})
	store.SetCell("piano", 0, NoteCell{Root: "D", Split: true})
	store.SetCell("ghost", 0, NoteCell{Root: "C"})
	store.SetCell("drums", 0, ChordCell{})

	s := store.Snapshot()
	assert.Equal(t, NoteCell{Root: "A#"}, s.Cell("bass", 2))
	assert.Nil(t, s.Cell("bass", 3), "mistyped cell dropped")
	assert.Nil(t, s.Cell("bass", 9), "bar beyond the arrangement dropped")
	assert.NotContains(t, s.Cells, "ghost")
	assert.NotContains(t, s.Cells, "drums")

	piano, ok := s.Cell("piano", 0).(ChordCell)
	require.True(t, ok, "note cell on a chord track becomes a chord")
	assert.Equal(t, harmony.NewChord("D", harmony.Major, ""), piano.Chord)
	assert.Equal(t, piano.Chord, piano.Second)

	store.SetCell("bass", 2, nil)
	assert.Nil(t, store.Snapshot().Cell("bass", 2))
}

func TestSegments(t *testing.T) {
	n := NoteCell{Root: "E", Split: true}
	first := n.SegmentAt(0)
	assert.Equal(t, Segment{Root: "E", IsStart: true, Length: 8}, first)

	second := n.SegmentAt(10)
	assert.Equal(t, "E", second.Root, "missing second root repeats the first")
	assert.Equal(t, 1, second.Half)
	assert.Equal(t, 2, second.Offset)
	assert.False(t, second.IsStart)
	assert.True(t, n.SegmentAt(8).IsStart)

	whole := NoteCell{Root: "A"}.SegmentAt(12)
	assert.Equal(t, Segment{Root: "A", Offset: 12, Length: 16}, whole)

	c := ChordCell{Chord: harmony.ParseChord("Am"), Split: true}
	seg := c.SegmentAt(9)
	assert.Equal(t, harmony.ParseChord("Am"), seg.Chord)
	assert.Equal(t, "A", seg.Root)
	assert.Equal(t, 1, seg.Half)
}

func TestStoreLoopEdits(t *testing.T) {
	store := NewStore(nil)
	calls := 0
	store.OnChange(func() { calls++ })

	store.ToggleLoopStep("snare", 0)
	store.ToggleLoopStep("snare", 99)
	store.ToggleLoopStep("nope", 0)
	s := store.Snapshot()
	assert.True(t, s.Pattern.Hit("snare", 0))
	assert.True(t, s.Clips[SharedClipRef].Lanes.Hit("snare", 0), "shared clip follows the loop")
	assert.Equal(t, 3, calls)

	store.SetTransport(func(tr *Transport) { tr.LoopBars = 2 })
	s = store.Snapshot()
	assert.Len(t, s.Pattern["kick"], 32)
	assert.False(t, s.Pattern.Hit("kick", 16), "grown bars start empty")

	store.ApplyPreset("Funk")
	s = store.Snapshot()
	assert.True(t, s.Pattern.Hit("kick", 16+3))
	assert.Len(t, s.Clips[SharedClipRef].Lanes["kick"], 16)

	store.ApplyPreset("Nonexistent")
	assert.Equal(t, EmptyPattern(32), store.Snapshot().Pattern)
}

func TestStoreTrackEdits(t *testing.T) {
	store := NewStore(nil)
	store.SetVolume("bass", 1.7)
	store.SetMute("piano", true)
	store.SetSolo("drums", true)
	store.SetVolume("nobody", 0.1)

	s := store.Snapshot()
	bass, _ := s.Track("bass")
	piano, _ := s.Track("piano")
	drums, _ := s.Track("drums")
	assert.Equal(t, 1.0, bass.Volume)
	assert.True(t, piano.Mute)
	assert.True(t, drums.Solo)
}

func TestAddDrumClip(t *testing.T) {
	store := NewStore(nil)
	lanes := EmptyPattern(4)
	lanes["kick"][0] = true

	ref := store.AddDrumClip("", lanes)
	assert.NotEqual(t, SharedClipRef, ref)
	lanes["kick"][1] = true

	s := store.Snapshot()
	clip := s.Clip(ref)
	assert.Equal(t, ref, clip.Name, "unnamed clip takes its ref")
	assert.Len(t, clip.Lanes["kick"], 16)
	assert.False(t, clip.Lanes.Hit("kick", 1), "clip copied on add")
	assert.Equal(t, []string{SharedClipRef, ref}, s.ClipRefs())
	assert.Equal(t, s.Clips[SharedClipRef], s.Clip(""))
}

func TestSnapshotIsDeep(t *testing.T) {
	store := NewStore(nil)
	store.SetCell("bass", 0, NoteCell{Root: "C"})

	snap := store.Snapshot()
	snap.Pattern["kick"][1] = true
	snap.Tracks[0].Settings.LaneGains["kick"] = 0
	snap.Cells["bass"][1] = NoteCell{Root: "D"}

	again := store.Snapshot()
	assert.False(t, again.Pattern.Hit("kick", 1))
	assert.Equal(t, 1.0, again.Tracks[0].Settings.LaneGains["kick"])
	assert.Nil(t, again.Cell("bass", 1))
}
