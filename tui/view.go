package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-backtrack/sequencer"
	"go-backtrack/widgets"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	snap := m.Manager.Store().Snapshot()
	head, playing := m.Manager.Playhead()
	if !m.Manager.IsPlaying() {
		playing = false
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	statusStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header(snap.Transport)))
	out.WriteString("\n\n")

	if m.screen == screenLoop {
		playhead := -1
		if playing && head.Context == sequencer.ContextLoop {
			playhead = head.StepInLoop
		}
		out.WriteString(m.loopView(snap, playhead))
	} else {
		playBar := -1
		if playing && head.Context == sequencer.ContextArrangement {
			playBar = head.BarIndex
		}
		out.WriteString(m.arrangeView(snap, playBar))
	}

	out.WriteString("\n\n")
	out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(m.keyHelp())))
	if m.status != "" {
		out.WriteString("\n\n")
		out.WriteString(statusStyle.Render(m.status))
	}
	return out.String()
}

func (m Model) header(tr sequencer.Transport) string {
	state := "STOP"
	if m.Manager.IsPlaying() {
		state = "PLAY"
	}
	click := "off"
	if tr.Metronome.Enabled {
		click = string(tr.Metronome.Subdivision)
	}
	port := m.port
	if port == "" {
		port = "no output"
	}
	return fmt.Sprintf("go-backtrack  %s  %3.0fbpm  swing:%2.0f%%  click:%s  [%s]",
		state, tr.BPM, tr.SwingPercent, click, port)
}

func (m Model) loopView(s *sequencer.Session, playhead int) string {
	var out strings.Builder
	fmt.Fprintf(&out, "LOOP  %d bar(s)  step %d/%d\n\n", s.Transport.LoopBars, m.step+1, len(s.Pattern[sequencer.Lanes[0]]))

	laneStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	selStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor())
	for i, lane := range sequencer.Lanes {
		cursor := -1
		style := laneStyle
		if i == m.lane {
			cursor = m.step
			style = selStyle
		}
		fmt.Fprintf(&out, "%s %s\n", style.Render(fmt.Sprintf("%-10s", lane)), widgets.RenderStepRow(m.Theme, s.Pattern[lane], playhead, cursor))
	}
	return strings.TrimRight(out.String(), "\n")
}

func (m Model) arrangeView(s *sequencer.Session, playBar int) string {
	tr := s.Transport
	var out strings.Builder

	rng := "off"
	if tr.LoopRange.Enabled {
		rng = fmt.Sprintf("%d-%d", tr.LoopRange.StartBar+1, tr.LoopRange.EndBar+1)
	}
	fmt.Fprintf(&out, "ARRANGE  %d bars  range:%s  bar %d\n\n", tr.ArrangementBars, rng, m.bar+1)

	// bar ruler
	out.WriteString(strings.Repeat(" ", 19))
	for b := m.scroll; b < min(m.scroll+stripBars, tr.ArrangementBars); b++ {
		if b%4 == 0 {
			out.WriteString(fmt.Sprintf("%-4d", b+1))
		}
	}
	out.WriteString("\n")

	sym := m.Theme.Symbols
	filled := lipgloss.NewStyle().Foreground(m.Theme.Active())
	empty := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	cursor := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Reverse(true)
	playing := lipgloss.NewStyle().Foreground(m.Theme.Success())

	for i, t := range s.Tracks {
		flags := "  "
		if t.Mute {
			flags = "M "
		}
		if t.Solo {
			flags = "S "
		}
		name := fmt.Sprintf("%-8s", t.Name)
		if len(name) > 8 {
			name = name[:8]
		}
		fmt.Fprintf(&out, "%s%s %s ", flags, name, widgets.RenderMeter(m.Theme, t.Volume, 5))

		for b := m.scroll; b < min(m.scroll+stripBars, tr.ArrangementBars); b++ {
			r, style := sym.BarEmpty, empty
			if tr.LoopRange.Enabled && b >= tr.LoopRange.StartBar && b <= tr.LoopRange.EndBar {
				r = sym.BarInRange
			}
			if s.Cell(t.ID, b) != nil {
				r, style = sym.BarFilled, filled
			}
			if b == playBar {
				style = playing
			}
			if i == m.track && b == m.bar {
				style = cursor
			}
			out.WriteString(style.Render(string(r)))
		}
		out.WriteString("\n")
	}

	if m.track < len(s.Tracks) {
		t := s.Tracks[m.track]
		fmt.Fprintf(&out, "\n%s bar %d: %s", t.Name, m.bar+1, describeCell(s, s.Cell(t.ID, m.bar)))
	}
	return out.String()
}

func describeCell(s *sequencer.Session, c sequencer.Cell) string {
	switch v := c.(type) {
	case sequencer.DrumCell:
		return "clip " + s.Clip(v.ClipRef).Name
	case sequencer.NoteCell:
		if v.Split {
			return v.Root + " | " + v.SecondRoot
		}
		return v.Root
	case sequencer.ChordCell:
		if v.Split {
			return v.Chord.Symbol() + " | " + v.Second.Symbol()
		}
		return v.Chord.Symbol()
	}
	return "empty"
}

func (m Model) keyHelp() []widgets.KeySection {
	common := widgets.KeySection{Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "play/stop"},
		{Key: "tab", Desc: "loop/arrangement"},
		{Key: "+ / -", Desc: "tempo"},
		{Key: ", / .", Desc: "swing"},
		{Key: "m / M", Desc: "click on/off, subdivision"},
		{Key: "ctrl+s", Desc: "save song"},
	}}
	if m.screen == screenLoop {
		return []widgets.KeySection{{Keys: []widgets.KeyBinding{
			{Key: "hjkl", Desc: "move"},
			{Key: "x", Desc: "toggle step"},
			{Key: "P", Desc: "next preset"},
			{Key: "b", Desc: "loop length 1/2/4"},
		}}, common}
	}
	return []widgets.KeySection{{Keys: []widgets.KeyBinding{
		{Key: "hjkl / HL", Desc: "move, jump 8 bars"},
		{Key: "n / N", Desc: "root up/down (new cell on empty bar)"},
		{Key: "c / s", Desc: "chord quality, split bar"},
		{Key: "x / d", Desc: "drum clip, delete cell"},
		{Key: "t / T", Desc: "mute, solo"},
		{Key: "[ ] g", Desc: "loop range start, end, on/off"},
	}}, common}
}
