package harmony

import "strings"

// NoteNames are the twelve pitch classes, sharps only
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var noteAliases = map[string]string{
	"DB": "C#", "EB": "D#", "GB": "F#", "AB": "G#", "BB": "A#",
	"E#": "F", "FB": "E", "CB": "B", "B#": "C",
}

// NormalizeNoteName maps a user note name onto NoteNames.
// Flats become sharps, enharmonic spellings resolve, unknown names return fallback.
func NormalizeNoteName(note, fallback string) string {
	s := strings.TrimSpace(note)
	s = strings.ReplaceAll(s, "♭", "b")
	s = strings.ReplaceAll(s, "♯", "#")
	lower := strings.ToLower(s)
	if strings.HasSuffix(lower, "flat") {
		s = strings.TrimSpace(s[:len(s)-4]) + "b"
	} else if strings.HasSuffix(lower, "sharp") {
		s = strings.TrimSpace(s[:len(s)-5]) + "#"
	}
	if s == "" {
		return fallback
	}
	up := strings.ToUpper(s[:1]) + strings.ToUpper(s[1:])
	if alias, ok := noteAliases[up]; ok {
		return alias
	}
	for _, n := range NoteNames {
		if n == up {
			return n
		}
	}
	return fallback
}

// PitchClass returns 0..11 for a note name, C for anything unrecognised
func PitchClass(note string) int {
	name := NormalizeNoteName(note, "C")
	for i, n := range NoteNames {
		if n == name {
			return i
		}
	}
	return 0
}

// RootToMidi places a root in the given octave (1..6, default 2).
// The result stays inside 24..96.
func RootToMidi(note string, octave int) int {
	if octave == 0 {
		octave = 2
	}
	octave = clampInt(octave, 1, 6)
	return clampInt(12+octave*12+PitchClass(note), 24, 96)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
