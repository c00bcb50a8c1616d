package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPassesValidation(t *testing.T) {
	cfg := Default()
	warnings, err := Validate(&cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestResolvePathPrefersExplicit(t *testing.T) {
	path, err := ResolvePath("/tmp/custom.toml")
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.toml", path)
}

func TestResolvePathUsesXDGConfigHome(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	path, err := ResolvePath("")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(xdg, "muttr", "config.toml"), path)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	loaded, err := Load("")
	require.NoError(t, err)
	require.False(t, loaded.Exists)
	require.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	require.Contains(t, loaded.Warnings[0].Message, "using defaults")
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[cleanup]
level = 2

[engine]
name = "parakeet"

[boost]
enable = true
gain = 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.True(t, loaded.Exists)
	require.Equal(t, 2, loaded.Config.Cleanup.Level)
	require.Equal(t, "parakeet", loaded.Config.Engine.Name)
	require.True(t, loaded.Config.Boost.Enable)
	require.Equal(t, 2.5, loaded.Config.Boost.Gain)

	// Untouched sections keep defaults.
	require.Equal(t, "base.en", loaded.Config.Engine.Model)
	require.Equal(t, 60, loaded.Config.Insert.PasteDelayMS)
	require.True(t, loaded.Config.Context.Stitching)
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("cleanup = {"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parse config")
}

func TestValidateClampsCleanupLevel(t *testing.T) {
	cfg := Default()
	cfg.Cleanup.Level = 7

	warnings, err := Validate(&cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, 2, cfg.Cleanup.Level)
}

func TestValidateUnknownEngineWarnsAndFallsBack(t *testing.T) {
	cfg := Default()
	cfg.Engine.Name = "assemblyai"

	warnings, err := Validate(&cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, "whisper", cfg.Engine.Name)
}

func TestValidateClampsPasteDelay(t *testing.T) {
	cfg := Default()
	cfg.Insert.PasteDelayMS = 5000

	warnings, err := Validate(&cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, 500, cfg.Insert.PasteDelayMS)
}

func TestValidateFatalErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Engine.Model = " " }},
		{"zero timeout", func(c *Config) { c.Engine.TimeoutMS = 0 }},
		{"negative min utterance", func(c *Config) { c.Audio.MinUtteranceMS = -1 }},
		{"max below min", func(c *Config) { c.Audio.MaxDurationMS = 50; c.Audio.MinUtteranceMS = 100 }},
		{"zero gain", func(c *Config) { c.Boost.Gain = 0 }},
		{"positive gate", func(c *Config) { c.Boost.NoiseGateDB = 3 }},
		{"empty notify app", func(c *Config) { c.Notify.AppName = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(&cfg)
			require.Error(t, err)
		})
	}
}

func TestMinUtteranceHonorsBoostMode(t *testing.T) {
	cfg := Default()
	require.Equal(t, 100, cfg.MinUtterance())

	cfg.Boost.Enable = true
	require.Equal(t, 80, cfg.MinUtterance())
}
