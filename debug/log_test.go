package debug

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesCategory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	require.NoError(t, Enable(path))
	t.Cleanup(Disable)
	require.True(t, Enabled())

	Log("sched", "start bpm=%d", 120)
	for i := 0; i < 4; i++ {
		LogEvery(2, "visual", "dropped")
	}
	Disable()
	assert.False(t, Enabled())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "category=sched")
	assert.Contains(t, out, "start bpm=120")
	assert.Equal(t, 2, strings.Count(out, "category=visual"))
}

func TestLogDisabledIsNoop(t *testing.T) {
	Disable()
	assert.NotPanics(t, func() { Log("x", "nothing %d", 1) })
}
