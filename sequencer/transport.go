package sequencer

import "math"

// PlayContext selects what the transport plays
type PlayContext string

const (
	ContextLoop        PlayContext = "loop"        // drum loop of 1, 2 or 4 bars
	ContextArrangement PlayContext = "arrangement" // bar timeline
)

// Subdivision is the metronome click density
type Subdivision string

const (
	SubdivisionHalf      Subdivision = "half"
	SubdivisionQuarter   Subdivision = "quarter"
	SubdivisionEighth    Subdivision = "eighth"
	SubdivisionSixteenth Subdivision = "sixteenth"
)

const (
	StepsPerBar = 16

	DefaultBPM          = 110
	fallbackBPM         = 120
	MinBPM              = 30
	MaxBPM              = 300
	MaxSwing            = 60
	DefaultArrangeBars  = 64
	DefaultTrackMinutes = 4
)

// Metronome settings
type Metronome struct {
	Enabled       bool        `yaml:"enabled"`
	Volume        float64     `yaml:"volume"`
	AccentBeatOne bool        `yaml:"accentBeatOne"`
	Subdivision   Subdivision `yaml:"subdivision"`
}

// LoopRange restricts arrangement playback to a bar range, inclusive
type LoopRange struct {
	Enabled  bool `yaml:"enabled"`
	StartBar int  `yaml:"startBar"`
	EndBar   int  `yaml:"endBar"`
}

// Transport is the global playback configuration
type Transport struct {
	BPM             float64     `yaml:"bpm"`
	SwingPercent    float64     `yaml:"swing"`
	LoopBars        int         `yaml:"loopBars"`
	ArrangementBars int         `yaml:"arrangementBars"`
	LoopRange       LoopRange   `yaml:"loopRange"`
	TrackMinutes    float64     `yaml:"trackMinutes"`
	IsPlaying       bool        `yaml:"-"`
	Context         PlayContext `yaml:"context"`
	Metronome       Metronome   `yaml:"metronome"`
}

// DefaultTransport returns the transport of a fresh session
func DefaultTransport() Transport {
	return Transport{
		BPM:             DefaultBPM,
		LoopBars:        1,
		ArrangementBars: DefaultArrangeBars,
		LoopRange:       LoopRange{EndBar: DefaultArrangeBars - 1},
		TrackMinutes:    DefaultTrackMinutes,
		Context:         ContextLoop,
		Metronome: Metronome{
			Enabled:       true,
			Volume:        0.5,
			AccentBeatOne: true,
			Subdivision:   SubdivisionQuarter,
		},
	}
}

// Normalize clamps every field into its valid domain
func (t Transport) Normalize() Transport {
	t.BPM = ClampBPM(t.BPM)
	t.SwingPercent = ClampSwing(t.SwingPercent)
	t.LoopBars = NormalizeLoopBars(t.LoopBars)
	t.ArrangementBars = NormalizeArrangementBars(t.ArrangementBars)
	t.LoopRange = normalizeLoopRange(t.LoopRange, t.ArrangementBars)
	t.TrackMinutes = ClampTrackMinutes(t.TrackMinutes)
	if t.Context != ContextArrangement {
		t.Context = ContextLoop
	}
	t.Metronome.Volume = clampFloat(t.Metronome.Volume, 0, 1)
	t.Metronome.Subdivision = NormalizeSubdivision(t.Metronome.Subdivision)
	return t
}

// ClampBPM keeps bpm in 30..300; non-positive or NaN means 120
func ClampBPM(bpm float64) float64 {
	if math.IsNaN(bpm) || bpm <= 0 {
		return fallbackBPM
	}
	return clampFloat(bpm, MinBPM, MaxBPM)
}

// ClampSwing keeps swing in 0..60 percent
func ClampSwing(swing float64) float64 {
	if math.IsNaN(swing) {
		return 0
	}
	return clampFloat(swing, 0, MaxSwing)
}

// ClampTrackMinutes keeps the auto-stop duration in 1..30 minutes, default 4
func ClampTrackMinutes(m float64) float64 {
	if math.IsNaN(m) || m <= 0 {
		return DefaultTrackMinutes
	}
	return clampFloat(m, 1, 30)
}

// NormalizeLoopBars accepts 1, 2 or 4
func NormalizeLoopBars(n int) int {
	switch n {
	case 1, 2, 4:
		return n
	}
	return 1
}

// NormalizeArrangementBars clamps to 8..256 and rounds to a multiple of 4.
// Zero means the default length.
func NormalizeArrangementBars(n int) int {
	if n == 0 {
		n = DefaultArrangeBars
	}
	n = clampInt(n, 8, 256)
	return clampInt(int(math.Round(float64(n)/4))*4, 8, 256)
}

// NormalizeSubdivision falls back to quarter
func NormalizeSubdivision(s Subdivision) Subdivision {
	switch s {
	case SubdivisionHalf, SubdivisionQuarter, SubdivisionEighth, SubdivisionSixteenth:
		return s
	}
	return SubdivisionQuarter
}

func normalizeLoopRange(r LoopRange, bars int) LoopRange {
	maxBar := max(0, bars-1)
	r.StartBar = clampInt(r.StartBar, 0, maxBar)
	r.EndBar = clampInt(r.EndBar, 0, maxBar)
	if r.EndBar < r.StartBar {
		r.EndBar = r.StartBar
	}
	return r
}

// SixteenthSeconds is the length of one step at bpm
func SixteenthSeconds(bpm float64) float64 {
	return 60 / ClampBPM(bpm) / 4
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

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
