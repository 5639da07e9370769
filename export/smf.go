package export

import (
	"fmt"
	"math"
	"slices"

	"go-backtrack/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// TicksPerQuarter is the file resolution
const TicksPerQuarter = 960

type tickEvent struct {
	tick uint32
	off  bool
	msg  gomidi.Message
}

// SMF builds a multi-track file: a tempo track followed by one track per
// recorded part.
func (r *Recorder) SMF(bpm float64) (*smf.SMF, error) {
	if bpm <= 0 {
		return nil, fmt.Errorf("export: invalid tempo %v", bpm)
	}
	notes := r.Notes()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	toTick := func(sec float64) uint32 {
		return uint32(math.Max(0, math.Round(sec*bpm/60*TicksPerQuarter)))
	}

	var end uint32
	byTrack := make(map[string][]tickEvent)
	for _, n := range notes {
		on := toTick(n.At)
		off := toTick(n.At + n.Duration)
		if off <= on {
			off = on + 1
		}
		byTrack[n.Track] = append(byTrack[n.Track],
			tickEvent{tick: on, msg: gomidi.NoteOn(n.Channel, n.Key, n.Velocity)},
			tickEvent{tick: off, off: true, msg: gomidi.NoteOff(n.Channel, n.Key)},
		)
		end = max(end, off)
	}

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(bpm))
	tempo.Close(end)
	if err := sm.Add(tempo); err != nil {
		return nil, fmt.Errorf("export: tempo track: %w", err)
	}

	for _, name := range r.Tracks() {
		events := byTrack[name]
		slices.SortStableFunc(events, func(a, b tickEvent) int {
			if a.tick != b.tick {
				if a.tick < b.tick {
					return -1
				}
				return 1
			}
			// release before retrigger
			if a.off != b.off {
				if a.off {
					return -1
				}
				return 1
			}
			return 0
		})

		var track smf.Track
		track.Add(0, smf.MetaTrackSequenceName(name))
		var last uint32
		for _, ev := range events {
			track.Add(ev.tick-last, ev.msg)
			last = ev.tick
		}
		track.Close(end - last)
		if err := sm.Add(track); err != nil {
			return nil, fmt.Errorf("export: track %s: %w", name, err)
		}
	}
	return sm, nil
}

// WriteFile writes the recording to path
func (r *Recorder) WriteFile(path string, bpm float64) error {
	sm, err := r.SMF(bpm)
	if err != nil {
		return err
	}
	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	debug.Log("export", "wrote %s: %d tracks, %d notes", path, len(r.Tracks()), len(r.Notes()))
	return nil
}
