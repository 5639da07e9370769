package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Step grid (no cursor)
	StepEmpty    rune // · inactive step
	StepActive   rune // ● has hit
	StepPlayhead rune // ▶ current playing
	StepBeat     rune // : empty step on a beat

	// Step grid (with cursor)
	CursorEmpty    rune // ○ cursor on empty
	CursorActive   rune // ◉ cursor on active
	CursorPlayhead rune // ▷ cursor on playhead

	// Arrangement strip
	BarEmpty   rune // ─ no cell
	BarFilled  rune // ■ cell present
	BarInRange rune // ═ empty bar inside the loop range
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepBeat:     ':',

			CursorEmpty:    '○',
			CursorActive:   '◉',
			CursorPlayhead: '▷',

			BarEmpty:   '─',
			BarFilled:  '■',
			BarInRange: '═',
		},
	}
}

// Load builds a theme from a .gpl palette, or the built-in palette when
// path is empty. A broken palette file falls back to the built-in one.
func Load(path string) (*Theme, error) {
	if path == "" {
		return New(nil), nil
	}
	p, err := LoadGPL(path)
	if err != nil {
		return New(nil), err
	}
	return New(p), nil
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleSurface = 0.1 // dark purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleCursor  = 0.6 // rose pink
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Level colors a 0-1 amount (volume, velocity) from muted to success
func (t *Theme) Level(v float64) lipgloss.Color {
	return t.Color(RoleMuted + (RoleSuccess-RoleMuted)*v)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
