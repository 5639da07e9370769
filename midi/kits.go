package midi

import "strconv"

// DrumKit maps drum lanes to MIDI notes
type DrumKit struct {
	Name  string
	Notes map[string]uint8
}

// Kits contains all available drum kit mappings
var Kits = map[string]DrumKit{
	"gm": {
		Name: "General MIDI",
		Notes: map[string]uint8{
			"kick":       36,
			"snare":      38,
			"closed_hat": 42,
			"open_hat":   46,
			"clap":       39,
			"perc":       37, // side stick
			"crash":      49,
			"ride":       51,
			"tom":        43,
			"shaker":     70, // maracas
			"cowbell":    56,
		},
	},
	"rd8": {
		Name: "Behringer RD-8",
		Notes: map[string]uint8{
			"kick":       36,
			"snare":      40, // RD-8 uses 40, not 38!
			"closed_hat": 42,
			"open_hat":   46,
			"clap":       39,
			"perc":       37,
			"crash":      49,
			"ride":       51,
			"tom":        48,
			"shaker":     70,
			"cowbell":    56,
		},
	},
	"tr8s": {
		Name: "Roland TR-8S",
		Notes: map[string]uint8{
			"kick":       36,
			"snare":      38,
			"closed_hat": 42,
			"open_hat":   46,
			"clap":       39,
			"perc":       37,
			"crash":      49,
			"ride":       51,
			"tom":        43,
			"shaker":     70,
			"cowbell":    56,
		},
	},
	"er1": {
		Name: "Korg ER-1",
		Notes: map[string]uint8{
			"kick":       36, // Perc Synth 1
			"snare":      38, // Perc Synth 2
			"closed_hat": 42,
			"open_hat":   46,
			"clap":       39,
			"tom":        40, // Perc Synth 3
			"cowbell":    41, // Perc Synth 4
			"crash":      49,
		},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) DrumKit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}

// Note resolves a sample ref: a lane name, or a MIDI note number as text
func (k DrumKit) Note(ref string) (uint8, bool) {
	if n, ok := k.Notes[ref]; ok {
		return n, true
	}
	if n, err := strconv.Atoi(ref); err == nil && n >= 0 && n <= 127 {
		return uint8(n), true
	}
	return 0, false
}
