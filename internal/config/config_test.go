package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParse_JSONCWithComments verifies that a commented config file
// parses and fills in every field.
func TestParse_JSONCWithComments(t *testing.T) {
	data := []byte(`{
		// who owns our template repositories
		"defaultOwner": "acme",
		"apiURL": "https://github.example.com/api/v3",
		"requestTimeoutSeconds": 10,
		"keepTemp": true,
		"onConflict": "skip", // trailing comma below is fine too
	}`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "acme", cfg.DefaultOwner)
	assert.Equal(t, "https://github.example.com/api/v3", cfg.APIURL)
	assert.Equal(t, 10, cfg.RequestTimeoutSeconds)
	assert.True(t, cfg.KeepTemp)
	assert.Equal(t, "skip", cfg.OnConflict)
}

// TestParse_EmptyObjectKeepsDefaults verifies that unspecified fields
// keep their default values.
func TestParse_EmptyObjectKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 30, cfg.RequestTimeoutSeconds)
	assert.Equal(t, "ask", cfg.OnConflict)
}

// TestParse_RejectsInvalidPolicy verifies that an unknown onConflict
// value is rejected at load time, not at merge time.
func TestParse_RejectsInvalidPolicy(t *testing.T) {
	_, err := Parse([]byte(`{"onConflict": "merge-somehow"}`))
	assert.Error(t, err)
}

// TestLoad_MissingFileYieldsDefaults verifies that an absent config file
// is not an error.
func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

// TestLoad_PrefersWorkingDirectory verifies the search order: a config in
// the start directory wins over the user config directory.
func TestLoad_PrefersWorkingDirectory(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, "quilt"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configHome, "quilt", FileName),
		[]byte(`{"defaultOwner": "global"}`), 0o644))

	startDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(startDir, FileName),
		[]byte(`{"defaultOwner": "local"}`), 0o644))

	cfg, err := Load(startDir)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.DefaultOwner)
}

// TestLoad_FallsBackToConfigHome verifies the user config directory is
// used when the working directory has no config file.
func TestLoad_FallsBackToConfigHome(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	require.NoError(t, os.MkdirAll(filepath.Join(configHome, "quilt"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configHome, "quilt", FileName),
		[]byte(`{"defaultOwner": "global"}`), 0o644))

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "global", cfg.DefaultOwner)
}
