package sequencer

import (
	"fmt"
	"os"
	"strings"

	"go-backtrack/harmony"

	"gopkg.in/yaml.v3"
)

// songFile is the on-disk YAML document
type songFile struct {
	Transport   Transport                   `yaml:"transport"`
	Tracks      []songTrack                 `yaml:"tracks,omitempty"`
	Pattern     map[string]string           `yaml:"pattern"`
	Clips       map[string]songClip         `yaml:"clips,omitempty"`
	Arrangement map[string]map[int]songCell `yaml:"arrangement,omitempty"`
}

type songTrack struct {
	ID       string        `yaml:"id"`
	Kind     TrackKind     `yaml:"kind"`
	Name     string        `yaml:"name,omitempty"`
	Volume   *float64      `yaml:"volume,omitempty"`
	Mute     bool          `yaml:"mute,omitempty"`
	Solo     bool          `yaml:"solo,omitempty"`
	Settings TrackSettings `yaml:"settings,omitempty"`
}

type songClip struct {
	Name  string            `yaml:"name,omitempty"`
	Lanes map[string]string `yaml:"lanes"`
}

// songCell accepts the current cell fields and the older shapes
// {note: X} and {type: split, firstHalf: X, secondHalf: Y}.
type songCell struct {
	Clip   string `yaml:"clip,omitempty"`
	Root   string `yaml:"root,omitempty"`
	Chord  string `yaml:"chord,omitempty"`
	Split  bool   `yaml:"split,omitempty"`
	Second string `yaml:"second,omitempty"`

	Note       string `yaml:"note,omitempty"`
	Type       string `yaml:"type,omitempty"`
	FirstHalf  string `yaml:"firstHalf,omitempty"`
	SecondHalf string `yaml:"secondHalf,omitempty"`
}

// LoadSong reads a song file
func LoadSong(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read song: %w", err)
	}
	s, err := ParseSong(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// SaveSong writes s as YAML
func SaveSong(path string, s *Session) error {
	data, err := MarshalSong(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write song: %w", err)
	}
	return nil
}

// ParseSong decodes a YAML song into a normalized session
func ParseSong(data []byte) (*Session, error) {
	f := songFile{Transport: DefaultTransport()}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse song: %w", err)
	}

	s := &Session{
		Transport: f.Transport,
		Pattern:   BuildPreset("Empty", f.Transport.LoopBars),
		Clips:     map[string]DrumClip{},
		Cells:     map[string]map[int]Cell{},
	}
	if f.Pattern == nil {
		s.Pattern = BuildPreset("Rock", f.Transport.LoopBars)
	}
	for lane, steps := range f.Pattern {
		s.Pattern[lane] = parseSteps(steps)
	}
	for _, t := range f.Tracks {
		vol := 1.0
		if t.Volume != nil {
			vol = *t.Volume
		}
		s.Tracks = append(s.Tracks, Track{
			ID: t.ID, Kind: t.Kind, Name: t.Name, Volume: vol,
			Mute: t.Mute, Solo: t.Solo, Settings: t.Settings,
		})
	}
	for ref, c := range f.Clips {
		lanes := EmptyPattern(StepsPerBar)
		for lane, steps := range c.Lanes {
			lanes[lane] = parseSteps(steps)
		}
		s.Clips[ref] = DrumClip{Name: c.Name, Lanes: lanes}
	}

	// tracks first so cells can be typed by track kind
	s.Normalize()
	for id, row := range f.Arrangement {
		t, ok := s.Track(id)
		if !ok {
			return nil, fmt.Errorf("arrangement references unknown track %q", id)
		}
		cells := map[int]Cell{}
		for bar, raw := range row {
			if c := raw.cell(t.Kind); c != nil {
				cells[bar] = c
			}
		}
		s.Cells[id] = cells
	}
	s.Normalize()
	return s, nil
}

func (r songCell) cell(kind TrackKind) Cell {
	switch kind {
	case KindDrum:
		return DrumCell{ClipRef: r.Clip}
	case KindPiano:
		if r.Chord != "" {
			c := ChordCell{Chord: harmony.ParseChord(r.Chord), Split: r.Split}
			if r.Second != "" {
				c.Second = harmony.ParseChord(r.Second)
			}
			return c
		}
	}

	switch {
	case r.Type == "split":
		return NoteCell{Root: r.FirstHalf, Split: true, SecondRoot: r.SecondHalf}
	case r.Root != "":
		return NoteCell{Root: r.Root, Split: r.Split, SecondRoot: r.Second}
	case r.Note != "":
		return NoteCell{Root: r.Note}
	case r.Chord != "":
		return NoteCell{Root: harmony.ParseChord(r.Chord).Root}
	}
	return nil
}

// MarshalSong encodes a session as YAML
func MarshalSong(s *Session) ([]byte, error) {
	f := songFile{
		Transport:   s.Transport,
		Pattern:     formatPattern(s.Pattern),
		Clips:       map[string]songClip{},
		Arrangement: map[string]map[int]songCell{},
	}
	for _, t := range s.Tracks {
		vol := t.Volume
		f.Tracks = append(f.Tracks, songTrack{
			ID: t.ID, Kind: t.Kind, Name: t.Name, Volume: &vol,
			Mute: t.Mute, Solo: t.Solo, Settings: t.Settings,
		})
	}
	for ref, c := range s.Clips {
		if ref == SharedClipRef {
			continue
		}
		f.Clips[ref] = songClip{Name: c.Name, Lanes: formatPattern(c.Lanes)}
	}
	for id, row := range s.Cells {
		out := map[int]songCell{}
		for bar, c := range row {
			switch v := c.(type) {
			case DrumCell:
				out[bar] = songCell{Clip: v.ClipRef}
			case NoteCell:
				out[bar] = songCell{Root: v.Root, Split: v.Split, Second: v.SecondRoot}
			case ChordCell:
				sc := songCell{Chord: v.Chord.Symbol(), Split: v.Split}
				if v.Split {
					sc.Second = v.Second.Symbol()
				}
				out[bar] = sc
			}
		}
		f.Arrangement[id] = out
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("encode song: %w", err)
	}
	return data, nil
}

// parseSteps reads "x...x..." notation; x, X and 1 are hits, | and spaces are ignored
func parseSteps(s string) []bool {
	var steps []bool
	for _, r := range s {
		switch r {
		case '|', ' ', '\t':
		case 'x', 'X', '1':
			steps = append(steps, true)
		default:
			steps = append(steps, false)
		}
	}
	return steps
}

func formatPattern(p LanePattern) map[string]string {
	out := map[string]string{}
	for lane, steps := range p {
		if !anyHit(steps) {
			continue
		}
		var b strings.Builder
		for _, hit := range steps {
			if hit {
				b.WriteByte('x')
			} else {
				b.WriteByte('.')
			}
		}
		out[lane] = b.String()
	}
	return out
}

func anyHit(steps []bool) bool {
	for _, s := range steps {
		if s {
			return true
		}
	}
	return false
}
