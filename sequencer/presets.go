package sequencer

// Lanes lists the drum lanes in display order
var Lanes = []string{
	"kick",
	"snare",
	"closed_hat",
	"open_hat",
	"clap",
	"perc",
	"crash",
	"ride",
	"tom",
	"shaker",
	"cowbell",
}

// Presets lists the drum preset names
var Presets = []string{"Rock", "Pop", "Funk", "HipHop", "Empty"}

var (
	everyTwoSteps = []int{0, 2, 4, 6, 8, 10, 12, 14}
	everyStep     = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
)

var presetHits = map[string]map[string][]int{
	"Rock": {
		"kick":       {0, 8},
		"snare":      {4, 12},
		"closed_hat": everyTwoSteps,
	},
	"Pop": {
		"kick":       {0, 6, 8},
		"snare":      {4, 12},
		"closed_hat": everyTwoSteps,
	},
	"Funk": {
		"kick":       {0, 3, 7, 10},
		"snare":      {4, 12},
		"closed_hat": everyStep,
	},
	"HipHop": {
		"kick":       {0, 7, 8},
		"snare":      {4, 12},
		"clap":       {4, 12},
		"closed_hat": everyStep,
	},
	"Empty": {},
}

// LanePattern maps lane ID to one flag per step
type LanePattern map[string][]bool

// EmptyPattern returns every lane with steps false flags
func EmptyPattern(steps int) LanePattern {
	p := make(LanePattern, len(Lanes))
	for _, lane := range Lanes {
		p[lane] = make([]bool, steps)
	}
	return p
}

// BuildPreset tiles a one-bar preset over bars (1, 2 or 4).
// Unknown names give an empty pattern.
func BuildPreset(name string, bars int) LanePattern {
	bars = NormalizeLoopBars(bars)
	p := EmptyPattern(bars * StepsPerBar)
	hits := presetHits[name]
	for lane, steps := range hits {
		for bar := 0; bar < bars; bar++ {
			for _, s := range steps {
				p[lane][bar*StepsPerBar+s] = true
			}
		}
	}
	return p
}

// Resize returns a copy with every known lane exactly steps long
func (p LanePattern) Resize(steps int) LanePattern {
	out := EmptyPattern(steps)
	for _, lane := range Lanes {
		copy(out[lane], p[lane])
	}
	return out
}

// Clone deep copies the pattern
func (p LanePattern) Clone() LanePattern {
	out := make(LanePattern, len(p))
	for lane, steps := range p {
		out[lane] = append([]bool(nil), steps...)
	}
	return out
}

// Hit reports whether lane fires at step
func (p LanePattern) Hit(lane string, step int) bool {
	steps := p[lane]
	return step >= 0 && step < len(steps) && steps[step]
}
