package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)

	_, err = LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[data]
source = "data/programs.csv"
delimiter = "tab"

[view]
dept = "Health"
top = "25"
order = "desc"
flagged = true

[deactivation]
window = 4
min-avg = 2.5
min-zeros = 2

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Data.Source)
	assert.Equal(t, "data/programs.csv", *cfg.Data.Source)
	assert.Equal(t, "Health", *cfg.View.Dept)
	assert.Equal(t, "25", *cfg.View.Top)
	assert.True(t, *cfg.View.Flagged)
	assert.Nil(t, cfg.View.Award)
	assert.Equal(t, 4, *cfg.Deactivation.Window)
	assert.InDelta(t, 2.5, *cfg.Deactivation.MinAvg, 1e-9)
	assert.Nil(t, cfg.Deactivation.MinTotal)
	require.NotNil(t, cfg.Deactivation.MinZeros)
	assert.Equal(t, 2, *cfg.Deactivation.MinZeros)
	assert.Equal(t, "debug", *cfg.Log.Level)
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[view]\ncolour = \"red\"\n"), 0o644))
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "view.colour")

	require.NoError(t, os.WriteFile(path, []byte("[deactivation]\nmax-zeros = 2\n"), 0o644))
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deactivation.max-zeros")
}

func TestParseDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": 0, ",": ',', "semicolon": ';', "tab": '\t', `\t`: '\t', "|": '|'} {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseDelimiter("::")
	assert.Error(t, err)
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	assert.Equal(t, filepath.Join("/tmp/cfg", "awardboard", "config.toml"), DefaultConfigPath())
	assert.Equal(t, filepath.Join("/tmp/state", "awardboard", "awardboard.log"), DefaultLogPath())
}
