package tui

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"go-backtrack/debug"
	"go-backtrack/harmony"
	"go-backtrack/midi"
	"go-backtrack/sequencer"
	"go-backtrack/theme"
)

type screen int

const (
	screenLoop screen = iota
	screenArrange
)

// bars visible in the arrangement strip
const stripBars = 16

type Model struct {
	Manager  *sequencer.Manager
	Ports    *midi.PortWatcher // may be nil
	Theme    *theme.Theme
	SongPath string

	screen   screen
	lane     int // loop cursor
	step     int
	track    int // arrangement cursor
	bar      int
	scroll   int
	preset   string
	port     string
	status   string
	quitting bool
}

type UpdateMsg struct{}

type PortEventMsg midi.PortEvent

func NewModel(manager *sequencer.Manager, ports *midi.PortWatcher, th *theme.Theme, songPath string) Model {
	m := Model{
		Manager:  manager,
		Ports:    ports,
		Theme:    th,
		SongPath: songPath,
	}
	if ports != nil {
		m.port = ports.Name()
	}
	if manager.Store().Transport().Context == sequencer.ContextArrangement {
		m.screen = screenArrange
	}
	return m
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func ListenForPorts(ports *midi.PortWatcher) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ports.Events()
		if !ok {
			return nil
		}
		return PortEventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForUpdates(m.Manager)}
	if m.Ports != nil {
		cmds = append(cmds, ListenForPorts(m.Ports))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case PortEventMsg:
		switch msg.Type {
		case midi.PortConnected:
			m.port = msg.Name
			m.status = "connected " + msg.Name
		case midi.PortDisconnected:
			m.port = ""
			m.status = "lost " + msg.Name
		}
		return m, ListenForPorts(m.Ports)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	store := m.Manager.Store()
	tr := store.Transport()

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		m.Manager.Stop()
		return m, tea.Quit

	case " ", "p":
		if m.Manager.IsPlaying() {
			m.Manager.Stop()
		} else {
			m.Manager.Play(m.context())
		}
		return m, nil

	case "tab":
		if m.screen == screenLoop {
			m.screen = screenArrange
		} else {
			m.screen = screenLoop
		}
		if !m.Manager.IsPlaying() {
			store.SetTransport(func(t *sequencer.Transport) { t.Context = m.context() })
		}
		return m, nil

	case "+", "=":
		m.Manager.SetTempo(tr.BPM + 5)
		return m, nil
	case "-", "_":
		m.Manager.SetTempo(tr.BPM - 5)
		return m, nil
	case ".":
		m.Manager.SetSwing(tr.SwingPercent + 5)
		return m, nil
	case ",":
		m.Manager.SetSwing(tr.SwingPercent - 5)
		return m, nil

	case "m":
		store.SetTransport(func(t *sequencer.Transport) { t.Metronome.Enabled = !t.Metronome.Enabled })
		return m, nil
	case "M":
		store.SetTransport(func(t *sequencer.Transport) {
			t.Metronome.Subdivision = nextSubdivision(t.Metronome.Subdivision)
		})
		return m, nil

	case "ctrl+s":
		m.save()
		return m, nil
	}

	if m.screen == screenLoop {
		m.loopKey(key)
	} else {
		m.arrangeKey(key)
	}
	return m, nil
}

func (m *Model) loopKey(key string) {
	store := m.Manager.Store()
	steps := store.Transport().LoopBars * sequencer.StepsPerBar

	switch key {
	case "h", "left":
		m.step = (m.step + steps - 1) % steps
	case "l", "right":
		m.step = (m.step + 1) % steps
	case "k", "up":
		m.lane = max(0, m.lane-1)
	case "j", "down":
		m.lane = min(len(sequencer.Lanes)-1, m.lane+1)
	case "x", "enter":
		store.ToggleLoopStep(sequencer.Lanes[m.lane], m.step)
	case "P":
		m.preset = nextPreset(m.preset)
		store.ApplyPreset(m.preset)
		m.status = "preset " + m.preset
	case "b":
		store.SetTransport(func(t *sequencer.Transport) {
			switch t.LoopBars {
			case 1:
				t.LoopBars = 2
			case 2:
				t.LoopBars = 4
			default:
				t.LoopBars = 1
			}
		})
		m.step %= store.Transport().LoopBars * sequencer.StepsPerBar
	}
}

func (m *Model) arrangeKey(key string) {
	store := m.Manager.Store()
	snap := store.Snapshot()
	bars := snap.Transport.ArrangementBars
	if len(snap.Tracks) == 0 {
		return
	}
	m.track = min(m.track, len(snap.Tracks)-1)
	t := snap.Tracks[m.track]
	cell := snap.Cell(t.ID, m.bar)

	switch key {
	case "h", "left":
		m.bar = max(0, m.bar-1)
	case "l", "right":
		m.bar = min(bars-1, m.bar+1)
	case "H":
		m.bar = max(0, m.bar-8)
	case "L":
		m.bar = min(bars-1, m.bar+8)
	case "k", "up":
		m.track = max(0, m.track-1)
	case "j", "down":
		m.track = min(len(snap.Tracks)-1, m.track+1)

	case "n", "N":
		step := 1
		if key == "N" {
			step = -1
		}
		store.SetCell(t.ID, m.bar, shiftRoot(t.Kind, cell, step))
	case "c":
		if cc, ok := cell.(sequencer.ChordCell); ok {
			cc.Chord.Quality = nextQuality(cc.Chord.Quality)
			store.SetCell(t.ID, m.bar, cc)
		}
	case "s":
		store.SetCell(t.ID, m.bar, toggleSplit(cell))
	case "x":
		if t.Kind == sequencer.KindDrum {
			store.SetCell(t.ID, m.bar, sequencer.DrumCell{ClipRef: nextClip(snap, cell)})
		}
	case "d", "backspace":
		store.SetCell(t.ID, m.bar, nil)

	case "t":
		store.SetMute(t.ID, !t.Mute)
	case "T":
		store.SetSolo(t.ID, !t.Solo)

	case "[":
		store.SetTransport(func(tr *sequencer.Transport) {
			tr.LoopRange.Enabled = true
			tr.LoopRange.StartBar = m.bar
			tr.LoopRange.EndBar = max(m.bar, tr.LoopRange.EndBar)
		})
	case "]":
		store.SetTransport(func(tr *sequencer.Transport) {
			tr.LoopRange.Enabled = true
			tr.LoopRange.EndBar = m.bar
			tr.LoopRange.StartBar = min(m.bar, tr.LoopRange.StartBar)
		})
	case "g":
		store.SetTransport(func(tr *sequencer.Transport) { tr.LoopRange.Enabled = !tr.LoopRange.Enabled })
	}

	if m.bar < m.scroll {
		m.scroll = m.bar
	}
	if m.bar >= m.scroll+stripBars {
		m.scroll = m.bar - stripBars + 1
	}
}

func (m *Model) save() {
	if m.SongPath == "" {
		m.status = "no song file"
		return
	}
	if err := sequencer.SaveSong(m.SongPath, m.Manager.Store().Snapshot()); err != nil {
		debug.Log("tui", "save: %v", err)
		m.status = fmt.Sprintf("save failed: %v", err)
		return
	}
	m.status = "saved " + m.SongPath
}

func (m Model) context() sequencer.PlayContext {
	if m.screen == screenArrange {
		return sequencer.ContextArrangement
	}
	return sequencer.ContextLoop
}

// shiftRoot moves the cell root by step semitones, creating a C cell on an
// empty bar
func shiftRoot(kind sequencer.TrackKind, cell sequencer.Cell, step int) sequencer.Cell {
	switch c := cell.(type) {
	case sequencer.NoteCell:
		c.Root = transpose(c.Root, step)
		if c.Split {
			c.SecondRoot = transpose(c.SecondRoot, step)
		}
		return c
	case sequencer.ChordCell:
		c.Chord.Root = transpose(c.Chord.Root, step)
		if c.Split {
			c.Second.Root = transpose(c.Second.Root, step)
		}
		return c
	}
	switch kind {
	case sequencer.KindPiano:
		return sequencer.ChordCell{Chord: harmony.NewChord("C", harmony.Major, "")}
	case sequencer.KindDrum:
		return sequencer.DrumCell{ClipRef: sequencer.SharedClipRef}
	}
	return sequencer.NoteCell{Root: "C"}
}

func toggleSplit(cell sequencer.Cell) sequencer.Cell {
	switch c := cell.(type) {
	case sequencer.NoteCell:
		c.Split = !c.Split
		c.SecondRoot = transpose(c.Root, 7)
		return c
	case sequencer.ChordCell:
		c.Split = !c.Split
		c.Second = harmony.NewChord(transpose(c.Chord.Root, 7), harmony.Major, "")
		return c
	}
	return cell
}

func transpose(note string, semis int) string {
	pc := harmony.PitchClass(note)
	return harmony.NoteNames[((pc+semis)%12+12)%12]
}

func nextQuality(q harmony.Quality) harmony.Quality {
	i := slices.Index(harmony.Qualities, q)
	return harmony.Qualities[(i+1)%len(harmony.Qualities)]
}

func nextSubdivision(s sequencer.Subdivision) sequencer.Subdivision {
	order := []sequencer.Subdivision{
		sequencer.SubdivisionHalf,
		sequencer.SubdivisionQuarter,
		sequencer.SubdivisionEighth,
		sequencer.SubdivisionSixteenth,
	}
	i := slices.Index(order, sequencer.NormalizeSubdivision(s))
	return order[(i+1)%len(order)]
}

func nextPreset(current string) string {
	i := slices.Index(sequencer.Presets, current)
	return sequencer.Presets[(i+1)%len(sequencer.Presets)]
}

func nextClip(s *sequencer.Session, cell sequencer.Cell) string {
	refs := s.ClipRefs()
	dc, ok := cell.(sequencer.DrumCell)
	if !ok {
		return refs[0]
	}
	i := slices.Index(refs, dc.ClipRef)
	return refs[(i+1)%len(refs)]
}
