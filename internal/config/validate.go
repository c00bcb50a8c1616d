package config

import (
	"fmt"
	"strings"
)

var validEngines = map[string]struct{}{
	"whisper":  {},
	"parakeet": {},
}

// Validate enforces config invariants, coercing recoverable values and
// returning non-fatal warnings the way the original settings loader does.
func Validate(cfg *Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if cfg.Cleanup.Level < 0 || cfg.Cleanup.Level > 2 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("cleanup.level %d out of range; clamping to [0,2]", cfg.Cleanup.Level)})
		cfg.Cleanup.Level = clampInt(cfg.Cleanup.Level, 0, 2)
	}

	engine := strings.ToLower(strings.TrimSpace(cfg.Engine.Name))
	if _, ok := validEngines[engine]; !ok {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("engine.name %q unknown; using %q", cfg.Engine.Name, "whisper")})
		engine = "whisper"
	}
	cfg.Engine.Name = engine

	if strings.TrimSpace(cfg.Engine.Model) == "" {
		return nil, fmt.Errorf("engine.model must not be empty")
	}
	if cfg.Engine.TimeoutMS <= 0 {
		return nil, fmt.Errorf("engine.timeout_ms must be > 0")
	}

	if cfg.Audio.MinUtteranceMS < 0 {
		return nil, fmt.Errorf("audio.min_utterance_ms must be >= 0")
	}
	if cfg.Audio.MaxDurationMS <= 0 {
		return nil, fmt.Errorf("audio.max_duration_ms must be > 0")
	}
	if cfg.Audio.MaxDurationMS <= cfg.Audio.MinUtteranceMS {
		return nil, fmt.Errorf("audio.max_duration_ms must exceed audio.min_utterance_ms")
	}

	if cfg.Boost.Gain <= 0 {
		return nil, fmt.Errorf("boost.gain must be > 0")
	}
	if cfg.Boost.NoiseGateDB > 0 {
		return nil, fmt.Errorf("boost.noise_gate_db must be <= 0 (dBFS)")
	}
	if cfg.Boost.MinUtteranceMS < 0 {
		return nil, fmt.Errorf("boost.min_utterance_ms must be >= 0")
	}

	if cfg.Insert.PasteDelayMS < 10 || cfg.Insert.PasteDelayMS > 500 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("insert.paste_delay_ms %d out of range; clamping to [10,500]", cfg.Insert.PasteDelayMS)})
		cfg.Insert.PasteDelayMS = clampInt(cfg.Insert.PasteDelayMS, 10, 500)
	}
	if cfg.Insert.RestoreDelayMS < 0 {
		return nil, fmt.Errorf("insert.restore_delay_ms must be >= 0")
	}

	if cfg.History.MaxEntries < 0 {
		return nil, fmt.Errorf("history.max_entries must be >= 0")
	}

	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}

	for trigger := range cfg.Cleanup.ProperNouns {
		if strings.TrimSpace(trigger) == "" {
			return nil, fmt.Errorf("cleanup.proper_nouns contains an empty trigger")
		}
	}

	return warnings, nil
}

// MinUtterance returns the effective minimum utterance guardrail in
// milliseconds, honoring the lowered boost-mode threshold.
func (c Config) MinUtterance() int {
	if c.Boost.Enable {
		return c.Boost.MinUtteranceMS
	}
	return c.Audio.MinUtteranceMS
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
