package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// fileConfig is the TOML shape of the config file. Pointer fields
// distinguish "unset" from zero values so defaults survive partial files.
type fileConfig struct {
	Cleanup struct {
		Level        *int              `toml:"level"`
		ProperNouns  map[string]string `toml:"proper_nouns"`
		ExtraFillers []string          `toml:"extra_fillers"`
	} `toml:"cleanup"`
	Engine struct {
		Name        *string `toml:"name"`
		Model       *string `toml:"model"`
		TimeoutMS   *int    `toml:"timeout_ms"`
		WhisperBin  *string `toml:"whisper_bin"`
		ParakeetBin *string `toml:"parakeet_bin"`
	} `toml:"engine"`
	Audio struct {
		Input          *string `toml:"input"`
		Fallback       *string `toml:"fallback"`
		MinUtteranceMS *int    `toml:"min_utterance_ms"`
		MaxDurationMS  *int    `toml:"max_duration_ms"`
	} `toml:"audio"`
	Boost struct {
		Enable         *bool    `toml:"enable"`
		Gain           *float64 `toml:"gain"`
		NoiseGateDB    *float64 `toml:"noise_gate_db"`
		MinUtteranceMS *int     `toml:"min_utterance_ms"`
	} `toml:"boost"`
	Insert struct {
		PasteDelayMS   *int `toml:"paste_delay_ms"`
		RestoreDelayMS *int `toml:"restore_delay_ms"`
	} `toml:"insert"`
	Context struct {
		Stitching *bool `toml:"stitching"`
	} `toml:"context"`
	Cadence struct {
		AdaptiveSilence *bool `toml:"adaptive_silence"`
		Feedback        *bool `toml:"feedback"`
	} `toml:"cadence"`
	History struct {
		Enable     *bool `toml:"enable"`
		MaxEntries *int  `toml:"max_entries"`
	} `toml:"history"`
	Notify struct {
		Enable  *bool   `toml:"enable"`
		AppName *string `toml:"app_name"`
	} `toml:"notify"`
}

// Load resolves, reads, parses, and validates the runtime configuration.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Loaded{
				Path:   resolvedPath,
				Config: base,
				Warnings: []Warning{{
					Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
				}},
				Exists: false,
			}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	warnings, err := Validate(&cfg)
	if err != nil {
		return Loaded{}, fmt.Errorf("validate config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Parse decodes TOML content over a base configuration.
func Parse(content string, base Config) (Config, error) {
	var fc fileConfig
	if _, err := toml.Decode(content, &fc); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	cfg := base

	applyInt(&cfg.Cleanup.Level, fc.Cleanup.Level)
	if fc.Cleanup.ProperNouns != nil {
		cfg.Cleanup.ProperNouns = fc.Cleanup.ProperNouns
	}
	if fc.Cleanup.ExtraFillers != nil {
		cfg.Cleanup.ExtraFillers = fc.Cleanup.ExtraFillers
	}

	applyString(&cfg.Engine.Name, fc.Engine.Name)
	applyString(&cfg.Engine.Model, fc.Engine.Model)
	applyInt(&cfg.Engine.TimeoutMS, fc.Engine.TimeoutMS)
	applyString(&cfg.Engine.WhisperBin, fc.Engine.WhisperBin)
	applyString(&cfg.Engine.ParakeetBin, fc.Engine.ParakeetBin)

	applyString(&cfg.Audio.Input, fc.Audio.Input)
	applyString(&cfg.Audio.Fallback, fc.Audio.Fallback)
	applyInt(&cfg.Audio.MinUtteranceMS, fc.Audio.MinUtteranceMS)
	applyInt(&cfg.Audio.MaxDurationMS, fc.Audio.MaxDurationMS)

	applyBool(&cfg.Boost.Enable, fc.Boost.Enable)
	applyFloat(&cfg.Boost.Gain, fc.Boost.Gain)
	applyFloat(&cfg.Boost.NoiseGateDB, fc.Boost.NoiseGateDB)
	applyInt(&cfg.Boost.MinUtteranceMS, fc.Boost.MinUtteranceMS)

	applyInt(&cfg.Insert.PasteDelayMS, fc.Insert.PasteDelayMS)
	applyInt(&cfg.Insert.RestoreDelayMS, fc.Insert.RestoreDelayMS)

	applyBool(&cfg.Context.Stitching, fc.Context.Stitching)
	applyBool(&cfg.Cadence.AdaptiveSilence, fc.Cadence.AdaptiveSilence)
	applyBool(&cfg.Cadence.Feedback, fc.Cadence.Feedback)

	applyBool(&cfg.History.Enable, fc.History.Enable)
	applyInt(&cfg.History.MaxEntries, fc.History.MaxEntries)

	applyBool(&cfg.Notify.Enable, fc.Notify.Enable)
	applyString(&cfg.Notify.AppName, fc.Notify.AppName)

	return cfg, nil
}

func applyInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func applyFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
