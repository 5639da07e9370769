package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go-backtrack/sequencer"
)

// OutputConfig defines the MIDI output
type OutputConfig struct {
	PortName string         `json:"portName,omitempty"`
	Channels map[string]int `json:"channels,omitempty"` // track kind or ID -> 1..16
	Kit      string         `json:"kit,omitempty"`
}

// SchedulerConfig holds scheduler timing in milliseconds
type SchedulerConfig struct {
	TickMillis      int `json:"tickMillis,omitempty"`
	LookaheadMillis int `json:"lookaheadMillis,omitempty"`
	StartOffset     int `json:"startOffsetMillis,omitempty"`
	ResyncMillis    int `json:"resyncMillis,omitempty"` // negative disables resync
}

// UIConfig stores UI preferences
type UIConfig struct {
	LastTempo int    `json:"lastTempo,omitempty"`
	Palette   string `json:"palette,omitempty"` // path to a .gpl file
}

// Config is the main configuration structure
type Config struct {
	Output    OutputConfig    `json:"output,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler,omitempty"`
	UI        UIConfig        `json:"ui,omitempty"`
	DebugLog  string          `json:"debugLog,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Channels: map[string]int{
				string(sequencer.KindBass):  1,
				string(sequencer.KindLead):  2,
				string(sequencer.KindPiano): 3,
				string(sequencer.KindPad):   4,
				"click":                     10,
				string(sequencer.KindDrum):  10,
			},
			Kit: "gm",
		},
		Scheduler: SchedulerConfig{
			TickMillis:      25,
			LookaheadMillis: 120,
			StartOffset:     30,
			ResyncMillis:    250,
		},
		UI: UIConfig{
			LastTempo: sequencer.DefaultBPM,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-backtrack"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads a config file over the defaults; a missing file gives defaults
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Channel returns the 1-based MIDI channel for a track, by ID then kind.
// Drums default to 10, everything else to 1.
func (c *Config) Channel(t sequencer.Track) int {
	if ch, ok := c.Output.Channels[t.ID]; ok && ch >= 1 && ch <= 16 {
		return ch
	}
	if ch, ok := c.Output.Channels[string(t.Kind)]; ok && ch >= 1 && ch <= 16 {
		return ch
	}
	if t.Kind == sequencer.KindDrum {
		return 10
	}
	return 1
}

// ClickChannel returns the metronome channel
func (c *Config) ClickChannel() int {
	if ch, ok := c.Output.Channels["click"]; ok && ch >= 1 && ch <= 16 {
		return ch
	}
	return 10
}

// SchedulerOptions converts the timing section; zero values keep defaults
// and a negative ResyncMillis turns clock-jump recovery off.
func (c *Config) SchedulerOptions() sequencer.Options {
	opts := sequencer.DefaultOptions()
	ms := func(v int, d *time.Duration) {
		if v > 0 {
			*d = time.Duration(v) * time.Millisecond
		}
	}
	ms(c.Scheduler.TickMillis, &opts.TickInterval)
	ms(c.Scheduler.LookaheadMillis, &opts.Lookahead)
	ms(c.Scheduler.StartOffset, &opts.StartOffset)
	ms(c.Scheduler.ResyncMillis, &opts.ResyncThreshold)
	if c.Scheduler.ResyncMillis < 0 {
		opts.ResyncThreshold = 0
	}
	return opts
}
