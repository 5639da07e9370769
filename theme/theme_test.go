package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: Mono
Columns: 2
# black to white
  0   0   0	black
255 255 300	white
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "Mono", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)

	_, err = LoadGPL(filepath.Join(t.TempDir(), "none.gpl"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.gpl")
	require.NoError(t, os.WriteFile(empty, []byte("GIMP Palette\n"), 0644))
	_, err = LoadGPL(empty)
	assert.ErrorContains(t, err, "no colors")
}

func TestLookup(t *testing.T) {
	p := &Palette{Colors: []RGB{{0, 0, 0}, {200, 100, 50}}}
	assert.Equal(t, RGB{0, 0, 0}, p.Lookup(-1))
	assert.Equal(t, RGB{200, 100, 50}, p.Lookup(2))
	assert.Equal(t, RGB{100, 50, 25}, p.Lookup(0.5))
	assert.Equal(t, RGB{200, 100, 50}, p.Index(9))
	assert.Equal(t, RGB{0, 0, 0}, p.Index(-3))
}

func TestLoadFallsBack(t *testing.T) {
	th, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "plasma", th.Palette.Name)

	th, err = Load("/nonexistent/palette.gpl")
	assert.Error(t, err)
	require.NotNil(t, th)
	assert.Equal(t, lipgloss.Color("#0d0887"), th.BG())
	assert.Equal(t, lipgloss.Color("#f0f921"), th.Success())
}
