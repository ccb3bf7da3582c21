package command

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wad "github.com/stuarthighley/wadkit"
)

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, "verbose: true\ngame: hexen\nkind: IWAD\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, Config{Verbose: true, Format: FormatTable, Game: "hexen", Kind: "IWAD"}, cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "verbose: [\n"))
	assert.Error(t, err)
}

func TestFlagsOverrideConfig(t *testing.T) {
	config := writeConfig(t, "kind: IWAD\natomic: true\n")
	dir := t.TempDir()

	fromConfig := filepath.Join(dir, "config.wad")
	_, err := execute(t, config, "marker", "--create", fromConfig, "A")
	require.NoError(t, err)
	l, err := wad.OpenListing(fromConfig)
	require.NoError(t, err)
	assert.Equal(t, wad.IWAD, l.Kind())

	fromFlag := filepath.Join(dir, "flag.wad")
	_, err = execute(t, config, "--kind", "pwad", "marker", "--create", fromFlag, "A")
	require.NoError(t, err)
	l, err = wad.OpenListing(fromFlag)
	require.NoError(t, err)
	assert.Equal(t, wad.PWAD, l.Kind())

	_, err = execute(t, config, "--kind", "zwad", "marker", "--create", filepath.Join(dir, "bad.wad"), "A")
	assert.Error(t, err)

	_, err = execute(t, filepath.Join(dir, "missing.yaml"), "list", fromFlag)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
