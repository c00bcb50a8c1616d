package doctor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEngineBinaryMissing(t *testing.T) {
	cfg := config.Default().Engine
	cfg.WhisperBin = "definitely-not-a-real-binary"

	check := checkEngineBinary(cfg)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckEngineBinaryFound(t *testing.T) {
	binDir := t.TempDir()
	fakeBin := filepath.Join(binDir, "whisper-cli")
	require.NoError(t, os.WriteFile(fakeBin, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir+":"+os.Getenv("PATH"))

	check := checkEngineBinary(config.Default().Engine)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "whisper-cli")
}

func TestCheckEngineBinaryParakeetFallsBackToWhisper(t *testing.T) {
	binDir := t.TempDir()
	fakeBin := filepath.Join(binDir, "whisper-cli")
	require.NoError(t, os.WriteFile(fakeBin, []byte("#!/usr/bin/env sh\nexit 0\n"), 0o755))
	t.Setenv("PATH", binDir)

	cfg := config.Default().Engine
	cfg.Name = "parakeet"

	check := checkEngineBinary(cfg)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "fall back")
}

func TestCheckModelMissing(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	check := checkModel(config.Default().Engine)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "model file missing")
}

func TestCheckModelExplicitPath(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "ggml-base.en.bin")
	require.NoError(t, os.WriteFile(modelPath, []byte("model"), 0o600))

	cfg := config.Default().Engine
	cfg.Model = modelPath

	check := checkModel(cfg)
	require.True(t, check.Pass)
	require.Equal(t, modelPath, check.Message)
}

func TestCheckSocketDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())

	check := checkSocketDir()
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "muttr.sock")
}

func TestCheckSocketDirUnset(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "")

	check := checkSocketDir()
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "XDG_RUNTIME_DIR")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestPermissionsFailsWithoutAudio(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	err := Permissions(context.Background(), config.Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "audio.device")
}

func TestRunCollectsAllChecks(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.toml", Config: config.Default()})
	require.NotEmpty(t, report.Checks)

	names := map[string]bool{}
	for _, check := range report.Checks {
		names[check.Name] = true
	}
	for _, want := range []string{"config", "audio.device", "engine.binary", "engine.model", "socket.dir", "clipboard"} {
		require.True(t, names[want], "missing check %s", want)
	}
}
