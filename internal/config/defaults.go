package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Cleanup: CleanupConfig{
			Level:       1,
			ProperNouns: map[string]string{},
		},
		Engine: EngineConfig{
			Name:        "whisper",
			Model:       "base.en",
			TimeoutMS:   30000,
			WhisperBin:  "whisper-cli",
			ParakeetBin: "parakeet-cli",
		},
		Audio: AudioConfig{
			Input:          "default",
			Fallback:       "default",
			MinUtteranceMS: 100,
			MaxDurationMS:  120000,
		},
		Boost: BoostConfig{
			Enable:         false,
			Gain:           3.0,
			NoiseGateDB:    -50.0,
			MinUtteranceMS: 80,
		},
		Insert: InsertConfig{
			PasteDelayMS:   60,
			RestoreDelayMS: 120,
		},
		Context: ContextConfig{Stitching: true},
		Cadence: CadenceConfig{
			AdaptiveSilence: true,
			Feedback:        true,
		},
		History: HistoryConfig{
			Enable:     true,
			MaxEntries: 1000,
		},
		Notify: NotifyConfig{
			Enable:  true,
			AppName: "MuttR",
		},
	}
}
