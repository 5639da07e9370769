// miditest checks the MIDI output routing without the editor.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"go-backtrack/config"
	gbmidi "go-backtrack/midi"
	"go-backtrack/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	port := ""
	if len(os.Args) > 2 {
		port = os.Args[2]
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "tracks":
		testTracks(port)
	case "kit":
		testKit(port)
	case "poll":
		pollPorts(port)
	default:
		usage()
	}
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list          - List all MIDI ports")
	fmt.Println("  tracks [port] - Play a note on each track channel")
	fmt.Println("  kit [port]    - Play every drum lane of the configured kit")
	fmt.Println("  poll [port]   - Watch the output connect and disconnect")
}

func listPorts() {
	fmt.Println("=== MIDI Output Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	ch := make(chan []drivers.Out, 1)
	go func() {
		ch <- midi.GetOutPorts()
	}()

	select {
	case outs := <-ch:
		for i, p := range outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

// openOutput connects to port and starts dispatching. The returned
// function waits for the queue to drain and shuts everything down.
func openOutput(port string) (*gbmidi.Output, sequencer.Clock, func(), bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	if port == "" {
		port = cfg.Output.PortName
	}

	ctx, cancel := context.WithCancel(context.Background())
	clock := sequencer.NewSystemClock()
	watcher := gbmidi.NewPortWatcher(port)
	out := gbmidi.NewOutput(watcher, clock, gbmidi.GetKit(cfg.Output.Kit), cfg.Channel, cfg.ClickChannel())
	go watcher.Run(ctx)
	go out.Run(ctx)

	select {
	case ev := <-watcher.Events():
		fmt.Printf("Connected: %s\n", ev.Name)
	case <-time.After(5 * time.Second):
		fmt.Println("No matching output port")
		cancel()
		return nil, nil, nil, false
	}

	done := func() {
		for out.Pending() > 0 {
			time.Sleep(50 * time.Millisecond)
		}
		out.AllNotesOff()
		cancel()
	}
	return out, clock, done, true
}

func testTracks(port string) {
	out, clock, done, ok := openOutput(port)
	if !ok {
		return
	}
	defer done()

	session := sequencer.NewSession()
	session.Tracks = append(session.Tracks,
		sequencer.Track{ID: "lead", Kind: sequencer.KindLead, Name: "Lead"},
		sequencer.Track{ID: "pad", Kind: sequencer.KindPad, Name: "Pad"},
	)

	at := clock.Now() + 0.1
	for _, t := range session.Tracks {
		if t.Kind == sequencer.KindDrum {
			fmt.Printf("  %-6s kick\n", t.ID)
			out.SampleSink(t).TriggerSample("kick", at, 1)
		} else {
			fmt.Printf("  %-6s C4\n", t.ID)
			out.NoteSink(t).TriggerNote(60, at, 0.4, 0.8)
		}
		at += 0.5
	}
	fmt.Println("  click  accent")
	out.ClickSink().TriggerNote(sequencer.ClickAccentNote, at, 0.05, 1)
}

func testKit(port string) {
	out, clock, done, ok := openOutput(port)
	if !ok {
		return
	}
	defer done()

	drums := sequencer.Track{ID: "drums", Kind: sequencer.KindDrum}
	sink := out.SampleSink(drums)
	at := clock.Now() + 0.1
	for _, lane := range sequencer.Lanes {
		fmt.Printf("  %s\n", lane)
		sink.TriggerSample(lane, at, 0.9)
		at += 0.25
	}
}

func pollPorts(port string) {
	fmt.Println("Watching for the output port... (Ctrl+C to stop)")

	watcher := gbmidi.NewPortWatcher(port)
	go watcher.Run(context.Background())
	for ev := range watcher.Events() {
		switch ev.Type {
		case gbmidi.PortConnected:
			fmt.Printf("+ CONNECTED: %s\n", ev.Name)
		case gbmidi.PortDisconnected:
			fmt.Printf("- DISCONNECTED: %s\n", ev.Name)
		}
	}
}
