package sequencer

import "go-backtrack/harmony"

// Cell is the content of one arrangement bar on one track.
// Exactly one of DrumCell, NoteCell or ChordCell.
type Cell interface {
	accepts(kind TrackKind) bool
}

// DrumCell plays a drum clip for the bar
type DrumCell struct {
	ClipRef string
}

// NoteCell holds a root for the bar, or two when split at the half bar
type NoteCell struct {
	Root       string
	Split      bool
	SecondRoot string
}

// ChordCell holds a chord for the bar, or two when split at the half bar
type ChordCell struct {
	Chord  harmony.Chord
	Split  bool
	Second harmony.Chord
}

func (DrumCell) accepts(k TrackKind) bool  { return k == KindDrum }
func (NoteCell) accepts(k TrackKind) bool  { return k == KindBass || k == KindLead || k == KindPad }
func (ChordCell) accepts(k TrackKind) bool { return k == KindPiano }

// Segment is the part of a bar governed by one root or chord
type Segment struct {
	Root    string
	Chord   harmony.Chord
	Half    int  // 0 first half, 1 second half
	IsStart bool // first step of the segment
	Offset  int  // step within the segment
	Length  int  // 16 unsplit, 8 split
}

// SegmentAt returns the segment active at stepInBar
func (c NoteCell) SegmentAt(stepInBar int) Segment {
	if !c.Split {
		return Segment{Root: c.Root, IsStart: stepInBar == 0, Offset: stepInBar, Length: StepsPerBar}
	}
	if stepInBar < StepsPerBar/2 {
		return Segment{Root: c.Root, IsStart: stepInBar == 0, Offset: stepInBar, Length: StepsPerBar / 2}
	}
	root := c.SecondRoot
	if root == "" {
		root = c.Root
	}
	if root == "" {
		root = "G"
	}
	return Segment{
		Root:    root,
		Half:    1,
		IsStart: stepInBar == StepsPerBar/2,
		Offset:  stepInBar - StepsPerBar/2,
		Length:  StepsPerBar / 2,
	}
}

// SegmentAt returns the segment active at stepInBar
func (c ChordCell) SegmentAt(stepInBar int) Segment {
	if !c.Split || stepInBar < StepsPerBar/2 {
		seg := Segment{Chord: c.Chord, IsStart: stepInBar == 0, Offset: stepInBar, Length: StepsPerBar}
		if c.Split {
			seg.Length = StepsPerBar / 2
		}
		seg.Root = seg.Chord.Root
		return seg
	}
	second := c.Second
	if second.Root == "" {
		second = c.Chord
	}
	return Segment{
		Root:    second.Root,
		Chord:   second,
		Half:    1,
		IsStart: stepInBar == StepsPerBar/2,
		Offset:  stepInBar - StepsPerBar/2,
		Length:  StepsPerBar / 2,
	}
}

func (c NoteCell) normalize() NoteCell {
	c.Root = harmony.NormalizeNoteName(c.Root, "C")
	if c.Split {
		c.SecondRoot = harmony.NormalizeNoteName(c.SecondRoot, c.Root)
	} else {
		c.SecondRoot = ""
	}
	return c
}

func (c ChordCell) normalize() ChordCell {
	c.Chord = c.Chord.Normalize()
	if c.Split {
		if c.Second.Root == "" {
			c.Second = c.Chord
		}
		c.Second = c.Second.Normalize()
	} else {
		c.Second = harmony.Chord{}
	}
	return c
}

// chordFromNote converts a note cell into major chords on the same roots
func chordFromNote(n NoteCell) ChordCell {
	n = n.normalize()
	c := ChordCell{Chord: harmony.NewChord(n.Root, harmony.Major, ""), Split: n.Split}
	if n.Split {
		c.Second = harmony.NewChord(n.SecondRoot, harmony.Major, "")
	}
	return c.normalize()
}
