package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-backtrack/debug"
	"go-backtrack/export"
	"go-backtrack/harmony"
	"go-backtrack/midi"
	"go-backtrack/sequencer"
	"go-backtrack/theme"
	"go-backtrack/tui"
)

var playCmd = &cobra.Command{
	Use:   "play [song.yaml]",
	Short: "Open the editor and play to the MIDI output",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlay,
}

var renderOpts struct {
	out     string
	bars    int
	seconds float64
	context string
}

var renderCmd = &cobra.Command{
	Use:   "render song.yaml",
	Short: "Render a song to a standard MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE:  runPorts,
}

var initCmd = &cobra.Command{
	Use:   "init [song.yaml]",
	Short: "Write a starter song and the default config",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.out, "out", "o", "", "output file (default: song name with .mid)")
	renderCmd.Flags().IntVar(&renderOpts.bars, "bars", 0, "stop after this many bars")
	renderCmd.Flags().Float64Var(&renderOpts.seconds, "seconds", 0, "stop after this many seconds")
	renderCmd.Flags().StringVar(&renderOpts.context, "context", "", "loop or arrangement (default: as saved)")
}

// openSong loads path, or starts a new session when path is empty or missing
func openSong(path string) (*sequencer.Session, error) {
	if path == "" {
		return sequencer.NewSession(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return sequencer.NewSession(), nil
	}
	return sequencer.LoadSong(path)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	defer debug.Disable()

	var songPath string
	if len(args) > 0 {
		songPath = args[0]
	}
	session, err := openSong(songPath)
	if err != nil {
		return err
	}
	store := sequencer.NewStore(session)
	if songPath == "" && cfg.UI.LastTempo > 0 {
		store.SetTransport(func(t *sequencer.Transport) { t.BPM = float64(cfg.UI.LastTempo) })
	}

	th, err := theme.Load(cfg.UI.Palette)
	if err != nil {
		debug.Log("main", "palette: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := sequencer.NewSystemClock()
	ports := midi.NewPortWatcher(cfg.Output.PortName)
	out := midi.NewOutput(ports, clock, midi.GetKit(cfg.Output.Kit), cfg.Channel, cfg.ClickChannel())
	go ports.Run(ctx)
	go out.Run(ctx)

	manager := sequencer.NewManager(store, clock, out, cfg.SchedulerOptions())
	debug.Log("main", "play song=%q port=%q kit=%s", songPath, cfg.Output.PortName, cfg.Output.Kit)

	m := tui.NewModel(manager, ports, th, songPath)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()
	manager.Stop()

	cfg.UI.LastTempo = int(store.Transport().BPM)
	if err := cfg.SaveFile(cfgPath); err != nil {
		debug.Log("main", "save config: %v", err)
	}
	return runErr
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	defer debug.Disable()

	session, err := sequencer.LoadSong(args[0])
	if err != nil {
		return err
	}
	store := sequencer.NewStore(session)

	opts := sequencer.RenderOptions{Bars: renderOpts.bars, Seconds: renderOpts.seconds}
	switch renderOpts.context {
	case "":
	case string(sequencer.ContextLoop), string(sequencer.ContextArrangement):
		opts.Context = sequencer.PlayContext(renderOpts.context)
	default:
		return fmt.Errorf("unknown context %q (want loop or arrangement)", renderOpts.context)
	}

	rec := export.NewRecorder(midi.GetKit(cfg.Output.Kit), cfg.Channel, cfg.ClickChannel())
	res := sequencer.RenderOffline(store, rec, opts)

	out := renderOpts.out
	if out == "" {
		out = trimExt(args[0]) + ".mid"
	}
	if err := rec.WriteFile(out, store.Transport().BPM); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d steps, %.1fs, %d notes (%s stop)\n", out, res.Steps, res.Length, len(rec.Notes()), res.Reason)
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	defer debug.Disable()

	names, err := midi.ListOutPorts(3 * time.Second)
	if err != nil {
		return fmt.Errorf("%w (try: sudo killall coreaudiod midiserver)", err)
	}
	if len(names) == 0 {
		fmt.Println("no MIDI output ports")
		return nil
	}
	selected, _ := midi.MatchPort(names, cfg.Output.PortName)
	for i, n := range names {
		mark := " "
		if n == selected {
			mark = "*"
		}
		fmt.Printf("%s %d: %s\n", mark, i, n)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	defer debug.Disable()

	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		if err := cfg.SaveFile(cfgPath); err != nil {
			return err
		}
		fmt.Println("wrote", cfgPath)
	}

	path := "song.yaml"
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := sequencer.SaveSong(path, starterSong()); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}

// starterSong is four bars of I-V-vi-IV in C over the Rock loop
func starterSong() *sequencer.Session {
	s := sequencer.NewSession()
	s.Transport.ArrangementBars = 8
	progression := []harmony.Chord{
		harmony.NewChord("C", harmony.Major, ""),
		harmony.NewChord("G", harmony.Major, ""),
		harmony.NewChord("A", harmony.Minor, ""),
		harmony.NewChord("F", harmony.Major, ""),
	}
	s.Cells["drums"] = map[int]sequencer.Cell{}
	s.Cells["bass"] = map[int]sequencer.Cell{}
	s.Cells["piano"] = map[int]sequencer.Cell{}
	for bar := 0; bar < 8; bar++ {
		c := progression[bar%len(progression)]
		s.Cells["drums"][bar] = sequencer.DrumCell{ClipRef: sequencer.SharedClipRef}
		s.Cells["bass"][bar] = sequencer.NoteCell{Root: c.Root}
		s.Cells["piano"][bar] = sequencer.ChordCell{Chord: c}
	}
	s.Normalize()
	return s
}

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}
