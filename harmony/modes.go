package harmony

// Mode selects how a single root is expanded into a chord
type Mode string

const (
	ModeSingle  Mode = "single"
	ModePower   Mode = "power"
	ModeSus2    Mode = "sus2"
	ModeSus4    Mode = "sus4"
	ModeSeventh Mode = "seventh"
	ModeTriad   Mode = "triad"
)

// Scale colours the third and seventh of Mode-built chords
type Scale string

const (
	ScaleMajor      Scale = "major"
	ScaleMinor      Scale = "minor"
	ScalePentatonic Scale = "pentatonic"
	ScaleBlues      Scale = "blues"
)

// NormalizeScale returns s if known, major otherwise
func NormalizeScale(s Scale) Scale {
	switch s {
	case ScaleMajor, ScaleMinor, ScalePentatonic, ScaleBlues:
		return s
	}
	return ScaleMajor
}

func (s Scale) minorish() bool {
	switch NormalizeScale(s) {
	case ScaleMinor, ScalePentatonic, ScaleBlues:
		return true
	}
	return false
}

// ResolveIntervals returns the semitone offsets for mode under scale.
// Unknown modes build a triad.
func ResolveIntervals(mode Mode, scale Scale) []int {
	minor := scale.minorish()
	switch mode {
	case ModeSingle:
		return []int{0}
	case ModePower:
		return []int{0, 7}
	case ModeSus2:
		return []int{0, 2, 7}
	case ModeSus4:
		return []int{0, 5, 7}
	case ModeSeventh:
		if minor {
			return []int{0, 3, 7, 10}
		}
		return []int{0, 4, 7, 11}
	}
	if minor {
		return []int{0, 3, 7}
	}
	return []int{0, 4, 7}
}

// BuildHarmonyMidi returns the notes of root expanded by mode.
// octave is clamped to 2..5 (0 means 4); notes stay inside 24..108.
func BuildHarmonyMidi(root string, octave int, mode Mode, scale Scale) []int {
	if octave == 0 {
		octave = 4
	}
	octave = clampInt(octave, 2, 5)
	base := 12 + octave*12 + PitchClass(root)
	iv := ResolveIntervals(mode, scale)
	out := make([]int, len(iv))
	for i, v := range iv {
		out[i] = clampInt(base+v, 24, 108)
	}
	return out
}
