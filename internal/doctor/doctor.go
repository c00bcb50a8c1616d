// Package doctor runs readiness diagnostics for config, audio, engines,
// and the insertion path, and gates recording on the result.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/audio"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
	"github.com/6m8bzpx42z-ship-it/MuttR/internal/engine"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment and runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	}}

	checks = append(checks,
		checkAudioSelection(ctx, cfg.Config),
		checkEngineBinary(cfg.Config.Engine),
		checkModel(cfg.Config.Engine),
		checkSocketDir(),
		checkClipboard(),
	)

	return Report{Checks: checks}
}

// Permissions runs only the checks that must hold before a recording
// can start: a reachable capture device and a usable engine.
func Permissions(ctx context.Context, cfg config.Config) error {
	if check := checkAudioSelection(ctx, cfg); !check.Pass {
		return fmt.Errorf("%s: %s", check.Name, check.Message)
	}
	if check := checkEngineBinary(cfg.Engine); !check.Pass {
		return fmt.Errorf("%s: %s", check.Name, check.Message)
	}
	return nil
}

// checkAudioSelection runs live device selection to surface
// selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkEngineBinary verifies the configured engine binary is in PATH.
// Parakeet falls back to whisper at session start, so here a missing
// parakeet-cli fails only when whisper-cli is missing too.
func checkEngineBinary(cfg config.EngineConfig) Check {
	bin := cfg.WhisperBin
	if cfg.Name == "parakeet" {
		if path, err := exec.LookPath(cfg.ParakeetBin); err == nil {
			return Check{Name: "engine.binary", Pass: true, Message: fmt.Sprintf("found at %s", path)}
		}
		path, err := exec.LookPath(bin)
		if err != nil {
			return Check{Name: "engine.binary", Pass: false, Message: fmt.Sprintf("neither %s nor %s in PATH", cfg.ParakeetBin, bin)}
		}
		return Check{Name: "engine.binary", Pass: true, Message: fmt.Sprintf("%s missing; will fall back to %s", cfg.ParakeetBin, path)}
	}

	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: "engine.binary", Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: "engine.binary", Pass: true, Message: fmt.Sprintf("found at %s", path)}
}

// checkModel verifies the whisper model file is on disk.
func checkModel(cfg config.EngineConfig) Check {
	path, err := engine.ModelPath(cfg.Model)
	if err != nil {
		return Check{Name: "engine.model", Pass: false, Message: err.Error()}
	}
	if _, err := os.Stat(path); err != nil {
		return Check{Name: "engine.model", Pass: false, Message: fmt.Sprintf("model file missing: %s", path)}
	}
	return Check{Name: "engine.model", Pass: true, Message: path}
}

// checkSocketDir verifies the runtime dir for the trigger socket.
func checkSocketDir() Check {
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return Check{Name: "socket.dir", Pass: false, Message: "XDG_RUNTIME_DIR is not set"}
	}
	info, err := os.Stat(runtimeDir)
	if err != nil || !info.IsDir() {
		return Check{Name: "socket.dir", Pass: false, Message: fmt.Sprintf("runtime dir unusable: %s", runtimeDir)}
	}
	return Check{Name: "socket.dir", Pass: true, Message: filepath.Join(runtimeDir, "muttr.sock")}
}

// checkClipboard verifies a clipboard tool is present. atotto/clipboard
// shells out to one of these on X11/Wayland.
func checkClipboard() Check {
	for _, bin := range []string{"wl-copy", "xclip", "xsel"} {
		if path, err := exec.LookPath(bin); err == nil {
			return Check{Name: "clipboard", Pass: true, Message: fmt.Sprintf("found %s", path)}
		}
	}
	return Check{Name: "clipboard", Pass: false, Message: "no clipboard tool found (wl-copy, xclip, or xsel)"}
}
