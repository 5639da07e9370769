package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-backtrack/theme"
)

// StepState is what a grid cell shows
type StepState int

const (
	StepOff StepState = iota
	StepOn
	StepPlaying
)

// StepRune picks the grid symbol for a cell
func StepRune(sym theme.Symbols, state StepState, cursor, beat bool) rune {
	switch state {
	case StepPlaying:
		if cursor {
			return sym.CursorPlayhead
		}
		return sym.StepPlayhead
	case StepOn:
		if cursor {
			return sym.CursorActive
		}
		return sym.StepActive
	}
	if cursor {
		return sym.CursorEmpty
	}
	if beat {
		return sym.StepBeat
	}
	return sym.StepEmpty
}

// RenderStepRow renders one lane; playhead < 0 hides it
func RenderStepRow(th *theme.Theme, steps []bool, playhead, cursor int) string {
	on := lipgloss.NewStyle().Foreground(th.Active())
	off := lipgloss.NewStyle().Foreground(th.Muted())
	head := lipgloss.NewStyle().Foreground(th.Success())
	cur := lipgloss.NewStyle().Foreground(th.Cursor())

	var out strings.Builder
	for i, hit := range steps {
		if i > 0 && i%16 == 0 {
			out.WriteString(" ")
		}
		state, style := StepOff, off
		if hit {
			state, style = StepOn, on
		}
		if i == playhead {
			state, style = StepPlaying, head
		}
		if i == cursor {
			style = cur
		}
		out.WriteString(style.Render(string(StepRune(th.Symbols, state, i == cursor, i%4 == 0))))
	}
	return out.String()
}

// RenderMeter draws a 0-1 amount as a bar of width cells
func RenderMeter(th *theme.Theme, v float64, width int) string {
	v = max(0, min(v, 1))
	filled := int(v*float64(width) + 0.5)
	style := lipgloss.NewStyle().Foreground(th.Level(v))
	return style.Render(strings.Repeat("▮", filled)) + strings.Repeat("▯", width-filled)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
