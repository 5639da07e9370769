package sequencer

import (
	"sort"
	"sync"

	"go-backtrack/harmony"

	"github.com/google/uuid"
)

// SharedClipRef is the drum clip every drum cell falls back to
const SharedClipRef = "shared-main"

// TrackKind identifies which engine drives a track
type TrackKind string

const (
	KindDrum  TrackKind = "drum"
	KindBass  TrackKind = "bass"
	KindLead  TrackKind = "lead"  // monophonic root-note line
	KindPiano TrackKind = "piano" // chords
	KindPad   TrackKind = "pad"
)

// RhythmPreset is a root-note rhythm
type RhythmPreset string

const (
	RhythmRoot8ths  RhythmPreset = "root8ths"
	RhythmRootFifth RhythmPreset = "rootFifth"
	RhythmOctave    RhythmPreset = "octave"
	RhythmWalking   RhythmPreset = "walking"
)

// PlayStyle is how a chord track spreads a voicing over the bar
type PlayStyle string

const (
	StyleBlock     PlayStyle = "block"
	StyleStabs8    PlayStyle = "stabs8"
	StyleArpUp     PlayStyle = "arpUp"
	StyleArpDown   PlayStyle = "arpDown"
	StyleArpUpDown PlayStyle = "arpUpDown"
)

// Humanize toggles random jitter
type Humanize struct {
	Velocity bool `yaml:"velocity"`
	Timing   bool `yaml:"timing"`
}

// TrackSettings holds the engine parameters for a track.
// Only the fields relevant to the track kind are used.
type TrackSettings struct {
	Rhythm   RhythmPreset  `yaml:"rhythm,omitempty"`
	Style    PlayStyle     `yaml:"style,omitempty"`
	Humanize Humanize      `yaml:"humanize,omitempty"`
	Voicing  harmony.Range `yaml:"voicing,omitempty"`

	Mode   harmony.Mode  `yaml:"mode,omitempty"`
	Scale  harmony.Scale `yaml:"scale,omitempty"`
	Octave int           `yaml:"octave,omitempty"`

	LaneGains map[string]float64 `yaml:"gains,omitempty"`
	Samples   map[string]string  `yaml:"samples,omitempty"`
}

// Track is one instrument row
type Track struct {
	ID       string
	Kind     TrackKind
	Name     string
	Volume   float64
	Mute     bool
	Solo     bool
	Settings TrackSettings
}

// DrumClip is a named one-bar drum pattern
type DrumClip struct {
	Name  string
	Lanes LanePattern
}

// Session is the full editable state: transport, tracks, loop pattern,
// drum clips and the arrangement grid.
type Session struct {
	Transport Transport
	Tracks    []Track
	Pattern   LanePattern
	Clips     map[string]DrumClip
	Cells     map[string]map[int]Cell // track ID -> bar -> cell
}

// NewSession returns a session with the default transport, the core tracks
// and a Rock loop.
func NewSession() *Session {
	s := &Session{
		Transport: DefaultTransport(),
		Pattern:   BuildPreset("Rock", 1),
		Clips:     map[string]DrumClip{},
		Cells:     map[string]map[int]Cell{},
	}
	s.Normalize()
	return s
}

func defaultTracks() []Track {
	return []Track{
		{ID: "drums", Kind: KindDrum, Name: "Drums", Volume: 0.9},
		{ID: "bass", Kind: KindBass, Name: "Bass", Volume: 1},
		{ID: "piano", Kind: KindPiano, Name: "Piano", Volume: 0.9},
	}
}

// Track returns the track with id
func (s *Session) Track(id string) (Track, bool) {
	for _, t := range s.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// Cell returns the cell of a track at bar, nil when empty
func (s *Session) Cell(trackID string, bar int) Cell {
	return s.Cells[trackID][bar]
}

// Clip resolves a drum clip ref, falling back to the shared clip
func (s *Session) Clip(ref string) DrumClip {
	if c, ok := s.Clips[ref]; ok && ref != "" {
		return c
	}
	return s.Clips[SharedClipRef]
}

// Normalize repairs the session in place: transport clamped, core tracks
// present, patterns sized to the loop, the shared clip mirroring the first
// loop bar and arrangement cells dropped when out of range or mistyped.
func (s *Session) Normalize() {
	s.Transport = s.Transport.Normalize()
	s.normalizeTracks()

	s.Pattern = s.Pattern.Resize(s.Transport.LoopBars * StepsPerBar)

	if s.Clips == nil {
		s.Clips = map[string]DrumClip{}
	}
	for ref, c := range s.Clips {
		c.Lanes = c.Lanes.Resize(StepsPerBar)
		if c.Name == "" {
			c.Name = ref
		}
		s.Clips[ref] = c
	}
	s.Clips[SharedClipRef] = DrumClip{Name: "Main", Lanes: s.Pattern.Resize(StepsPerBar)}

	s.normalizeCells()
}

func (s *Session) normalizeTracks() {
	seen := map[string]bool{}
	tracks := make([]Track, 0, len(s.Tracks)+3)
	for _, t := range s.Tracks {
		if t.ID == "" || seen[t.ID] {
			continue
		}
		switch t.Kind {
		case KindDrum, KindBass, KindLead, KindPiano, KindPad:
		default:
			continue
		}
		seen[t.ID] = true
		tracks = append(tracks, t)
	}
	for _, t := range defaultTracks() {
		if !seen[t.ID] {
			tracks = append(tracks, t)
		}
	}
	for i := range tracks {
		tracks[i] = tracks[i].normalize()
	}
	s.Tracks = tracks
}

func (t Track) normalize() Track {
	if t.Name == "" {
		t.Name = t.ID
	}
	t.Volume = clampFloat(t.Volume, 0, 1)
	st := &t.Settings
	switch st.Rhythm {
	case RhythmRoot8ths, RhythmRootFifth, RhythmOctave, RhythmWalking:
	default:
		st.Rhythm = RhythmRoot8ths
	}
	switch st.Style {
	case StyleBlock, StyleStabs8, StyleArpUp, StyleArpDown, StyleArpUpDown:
	default:
		st.Style = StyleBlock
	}
	st.Voicing = st.Voicing.Normalize()
	if st.Mode == "" {
		st.Mode = harmony.ModeTriad
	}
	st.Scale = harmony.NormalizeScale(st.Scale)
	if st.Octave == 0 {
		st.Octave = 4
	}
	st.Octave = clampInt(st.Octave, 2, 5)

	if t.Kind == KindDrum {
		gains := make(map[string]float64, len(Lanes))
		samples := make(map[string]string, len(Lanes))
		for _, lane := range Lanes {
			g, ok := st.LaneGains[lane]
			if !ok {
				g = 1
			}
			gains[lane] = clampFloat(g, 0, 1)
			if ref, ok := st.Samples[lane]; ok {
				samples[lane] = ref
			} else {
				samples[lane] = lane
			}
		}
		st.LaneGains, st.Samples = gains, samples
	}
	return t
}

func (s *Session) normalizeCells() {
	if s.Cells == nil {
		s.Cells = map[string]map[int]Cell{}
	}
	bars := s.Transport.ArrangementBars
	for id, row := range s.Cells {
		t, ok := s.Track(id)
		if !ok {
			delete(s.Cells, id)
			continue
		}
		for bar, c := range row {
			if bar < 0 || bar >= bars || c == nil {
				delete(row, bar)
				continue
			}
			if n, ok := c.(NoteCell); ok && t.Kind == KindPiano {
				c = chordFromNote(n)
			}
			if !c.accepts(t.Kind) {
				delete(row, bar)
				continue
			}
			switch v := c.(type) {
			case NoteCell:
				row[bar] = v.normalize()
			case ChordCell:
				row[bar] = v.normalize()
			case DrumCell:
				row[bar] = v
			}
		}
		if len(row) == 0 {
			delete(s.Cells, id)
		}
	}
}

// Clone deep copies the session
func (s *Session) Clone() *Session {
	out := &Session{
		Transport: s.Transport,
		Tracks:    make([]Track, len(s.Tracks)),
		Pattern:   s.Pattern.Clone(),
		Clips:     make(map[string]DrumClip, len(s.Clips)),
		Cells:     make(map[string]map[int]Cell, len(s.Cells)),
	}
	for i, t := range s.Tracks {
		t.Settings.LaneGains = cloneMap(t.Settings.LaneGains)
		t.Settings.Samples = cloneMap(t.Settings.Samples)
		out.Tracks[i] = t
	}
	for ref, c := range s.Clips {
		out.Clips[ref] = DrumClip{Name: c.Name, Lanes: c.Lanes.Clone()}
	}
	for id, row := range s.Cells {
		r := make(map[int]Cell, len(row))
		for bar, c := range row {
			r[bar] = c
		}
		out.Cells[id] = r
	}
	return out
}

// ClipRefs returns clip refs sorted with the shared clip first
func (s *Session) ClipRefs() []string {
	refs := make([]string, 0, len(s.Clips))
	for ref := range s.Clips {
		if ref != SharedClipRef {
			refs = append(refs, ref)
		}
	}
	sort.Strings(refs)
	return append([]string{SharedClipRef}, refs...)
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store guards a Session. Every mutation goes through Update, which
// re-normalizes before releasing the lock.
type Store struct {
	mu       sync.RWMutex
	s        *Session
	onChange func()
}

// NewStore wraps s, or a new session when s is nil
func NewStore(s *Session) *Store {
	if s == nil {
		s = NewSession()
	}
	s.Normalize()
	return &Store{s: s}
}

// OnChange registers a callback invoked after every Update
func (st *Store) OnChange(fn func()) {
	st.mu.Lock()
	st.onChange = fn
	st.mu.Unlock()
}

// Transport returns a copy of the current transport
func (st *Store) Transport() Transport {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Transport
}

// View runs fn with read access. fn must not retain s or call back into the store.
func (st *Store) View(fn func(s *Session)) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	fn(st.s)
}

// Update runs fn with write access and normalizes the result
func (st *Store) Update(fn func(s *Session)) {
	st.mu.Lock()
	fn(st.s)
	st.s.Normalize()
	cb := st.onChange
	st.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Snapshot returns a deep copy of the session
func (st *Store) Snapshot() *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s.Clone()
}

// SetTransport edits the transport
func (st *Store) SetTransport(fn func(t *Transport)) {
	st.Update(func(s *Session) { fn(&s.Transport) })
}

// SetCell places c on a track at bar; nil clears the bar
func (st *Store) SetCell(trackID string, bar int, c Cell) {
	st.Update(func(s *Session) {
		if c == nil {
			delete(s.Cells[trackID], bar)
			return
		}
		if s.Cells[trackID] == nil {
			s.Cells[trackID] = map[int]Cell{}
		}
		s.Cells[trackID][bar] = c
	})
}

// AddDrumClip stores a new one-bar clip and returns its ref
func (st *Store) AddDrumClip(name string, lanes LanePattern) string {
	ref := uuid.NewString()
	st.Update(func(s *Session) {
		s.Clips[ref] = DrumClip{Name: name, Lanes: lanes.Clone()}
	})
	return ref
}

// ToggleLoopStep flips one step of the loop pattern
func (st *Store) ToggleLoopStep(lane string, step int) {
	st.Update(func(s *Session) {
		steps, ok := s.Pattern[lane]
		if !ok || step < 0 || step >= len(steps) {
			return
		}
		steps[step] = !steps[step]
	})
}

// ApplyPreset replaces the loop pattern with a preset
func (st *Store) ApplyPreset(name string) {
	st.Update(func(s *Session) {
		s.Pattern = BuildPreset(name, s.Transport.LoopBars)
	})
}

// SetMute mutes or unmutes a track
func (st *Store) SetMute(trackID string, mute bool) {
	st.updateTrack(trackID, func(t *Track) { t.Mute = mute })
}

// SetSolo solos or unsolos a track
func (st *Store) SetSolo(trackID string, solo bool) {
	st.updateTrack(trackID, func(t *Track) { t.Solo = solo })
}

// SetVolume sets a track volume, clamped to 0..1
func (st *Store) SetVolume(trackID string, v float64) {
	st.updateTrack(trackID, func(t *Track) { t.Volume = v })
}

func (st *Store) updateTrack(id string, fn func(t *Track)) {
	st.Update(func(s *Session) {
		for i := range s.Tracks {
			if s.Tracks[i].ID == id {
				fn(&s.Tracks[i])
			}
		}
	})
}
