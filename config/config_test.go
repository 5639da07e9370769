package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-backtrack/sequencer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingGivesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Output.PortName = "IAC Driver Bus 1"
	cfg.Output.Channels["piano"] = 5
	cfg.Scheduler.LookaheadMillis = 200
	require.NoError(t, cfg.Save())

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.FileExists(t, path)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output":{"channels":{"bass":7}}}`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Output.Channels["bass"])
	assert.Equal(t, 10, cfg.Output.Channels["drum"])
	assert.Equal(t, "gm", cfg.Output.Kit)
}

func TestLoadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))
	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestChannel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Channels["keys2"] = 12
	cfg.Output.Channels["pad"] = 99

	assert.Equal(t, 12, cfg.Channel(sequencer.Track{ID: "keys2", Kind: sequencer.KindPiano}))
	assert.Equal(t, 3, cfg.Channel(sequencer.Track{ID: "piano", Kind: sequencer.KindPiano}))
	assert.Equal(t, 1, cfg.Channel(sequencer.Track{ID: "pad", Kind: sequencer.KindPad}), "out of range channel ignored")
	assert.Equal(t, 10, cfg.ClickChannel(), "click plays GM wood blocks on the drum channel")

	empty := &Config{}
	assert.Equal(t, 10, empty.Channel(sequencer.Track{ID: "d", Kind: sequencer.KindDrum}))
	assert.Equal(t, 10, empty.ClickChannel())
}

func TestSchedulerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scheduler.TickMillis = 10
	cfg.Scheduler.ResyncMillis = 0

	opts := cfg.SchedulerOptions()
	assert.Equal(t, 10*time.Millisecond, opts.TickInterval)
	assert.Equal(t, 120*time.Millisecond, opts.Lookahead)
	assert.Equal(t, 30*time.Millisecond, opts.StartOffset)
	assert.Equal(t, 250*time.Millisecond, opts.ResyncThreshold, "zero keeps the default")

	cfg.Scheduler.ResyncMillis = -1
	assert.Equal(t, time.Duration(0), cfg.SchedulerOptions().ResyncThreshold, "negative disables resync")

	cfg.Scheduler.ResyncMillis = 400
	assert.Equal(t, 400*time.Millisecond, cfg.SchedulerOptions().ResyncThreshold)
}
