package harmony

import "strings"

// Quality is a chord quality
type Quality string

const (
	Major     Quality = "maj"
	Minor     Quality = "min"
	Dominant7 Quality = "7"
	Major7    Quality = "maj7"
	Minor7    Quality = "m7"
	Diminish  Quality = "dim"
	Sus2      Quality = "sus2"
	Sus4      Quality = "sus4"
)

// Qualities lists every supported quality in display order
var Qualities = []Quality{Major, Minor, Dominant7, Major7, Minor7, Diminish, Sus2, Sus4}

var qualityIntervals = map[Quality][]int{
	Major:     {0, 4, 7},
	Minor:     {0, 3, 7},
	Dominant7: {0, 4, 7, 10},
	Major7:    {0, 4, 7, 11},
	Minor7:    {0, 3, 7, 10},
	Diminish:  {0, 3, 6},
	Sus2:      {0, 2, 7},
	Sus4:      {0, 5, 7},
}

var qualitySuffix = map[Quality]string{
	Major:     "",
	Minor:     "m",
	Dominant7: "7",
	Major7:    "maj7",
	Minor7:    "m7",
	Diminish:  "dim",
	Sus2:      "sus2",
	Sus4:      "sus4",
}

// suffixes accepted by ParseChord, longest first
var suffixQuality = []struct {
	suffix  string
	quality Quality
}{
	{"maj7", Major7}, {"min7", Minor7}, {"sus2", Sus2}, {"sus4", Sus4},
	{"dim", Diminish}, {"maj", Major}, {"min", Minor}, {"M7", Major7},
	{"m7", Minor7}, {"sus", Sus4}, {"7", Dominant7}, {"m", Minor}, {"", Major},
}

// NormalizeQuality returns q if known, Major otherwise
func NormalizeQuality(q Quality) Quality {
	if _, ok := qualityIntervals[q]; ok {
		return q
	}
	return Major
}

// Intervals returns the semitone stack for a quality
func (q Quality) Intervals() []int {
	iv := qualityIntervals[NormalizeQuality(q)]
	return append([]int(nil), iv...)
}

// Chord is a root, quality and optional slash bass
type Chord struct {
	Root    string
	Quality Quality
	Bass    string
}

// NewChord builds a normalized chord
func NewChord(root string, quality Quality, bass string) Chord {
	return Chord{Root: root, Quality: quality, Bass: bass}.Normalize()
}

// Normalize canonicalises note names and quality.
// An empty root becomes C, an unknown bass is dropped.
func (c Chord) Normalize() Chord {
	out := Chord{
		Root:    NormalizeNoteName(c.Root, "C"),
		Quality: NormalizeQuality(c.Quality),
	}
	if c.Bass != "" {
		out.Bass = NormalizeNoteName(c.Bass, "")
	}
	return out
}

// Symbol renders e.g. "Am7/G"
func (c Chord) Symbol() string {
	n := c.Normalize()
	s := n.Root + qualitySuffix[n.Quality]
	if n.Bass != "" {
		s += "/" + n.Bass
	}
	return s
}

func (c Chord) String() string { return c.Symbol() }

// PitchClasses returns the chord tones as pitch classes, root first
func (c Chord) PitchClasses() []int {
	n := c.Normalize()
	root := PitchClass(n.Root)
	iv := qualityIntervals[n.Quality]
	out := make([]int, len(iv))
	for i, v := range iv {
		out[i] = (root + v) % 12
	}
	return out
}

// ParseChord reads a chord symbol such as "C", "F#m7", "Bbmaj7" or "C/G".
// Unrecognised suffixes yield a major chord.
func ParseChord(symbol string) Chord {
	s := strings.TrimSpace(symbol)
	var bass string
	if i := strings.LastIndex(s, "/"); i >= 0 {
		bass = s[i+1:]
		s = s[:i]
	}
	if s == "" {
		return NewChord("C", Major, bass)
	}

	rootLen := 1
	if len(s) > 1 && (s[1] == '#' || s[1] == 'b') {
		rootLen = 2
	}
	root := s[:rootLen]
	rest := s[rootLen:]

	quality := Major
	for _, sq := range suffixQuality {
		if rest == sq.suffix {
			quality = sq.quality
			break
		}
	}
	return NewChord(root, quality, bass)
}
