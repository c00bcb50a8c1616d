// Package config resolves, parses, validates, and defaults muttr configuration.
package config

// Config is the fully materialized runtime configuration used by muttr.
// The controller takes an immutable snapshot of it at session start;
// changes on disk never affect an in-flight session.
type Config struct {
	Cleanup  CleanupConfig
	Engine   EngineConfig
	Audio    AudioConfig
	Boost    BoostConfig
	Insert   InsertConfig
	Context  ContextConfig
	Cadence  CadenceConfig
	History  HistoryConfig
	Notify   NotifyConfig
}

// CleanupConfig controls the deterministic text-cleanup pipeline.
type CleanupConfig struct {
	// Level is the aggressiveness slider: 0 light, 1 moderate, 2 aggressive.
	Level int
	// ProperNouns maps lowercase triggers to the desired casing,
	// merged into the built-in proper-noun table.
	ProperNouns map[string]string
	// ExtraFillers extends the filler vocabulary removed at level >= 1.
	ExtraFillers []string
}

// EngineConfig selects and parameterizes the transcription backend.
type EngineConfig struct {
	// Name is the requested engine identifier ("whisper" or "parakeet").
	Name string
	// Model is the model identifier passed to the engine.
	Model string
	// TimeoutMS bounds one transcription call.
	TimeoutMS int
	// WhisperBin and ParakeetBin override the binaries resolved from PATH.
	WhisperBin  string
	ParakeetBin string
}

// AudioConfig controls input-source selection and capture guardrails.
type AudioConfig struct {
	Input    string
	Fallback string
	// MinUtteranceMS discards captures shorter than this (guardrail skip).
	MinUtteranceMS int
	// MaxDurationMS force-stops captures at this hard ceiling.
	MaxDurationMS int
}

// BoostConfig controls low-volume dictation preprocessing
// (gain + noise gate + soft clip).
type BoostConfig struct {
	Enable bool
	Gain   float64
	// NoiseGateDB is the gate threshold in dBFS (negative).
	NoiseGateDB float64
	// MinUtteranceMS replaces Audio.MinUtteranceMS while boost is active.
	MinUtteranceMS int
}

// InsertConfig controls the clipboard/paste insertion protocol.
type InsertConfig struct {
	// PasteDelayMS is the wait between clipboard write and paste gesture.
	PasteDelayMS int
	// RestoreDelayMS is the wait between paste gesture and clipboard restore.
	RestoreDelayMS int
}

// ContextConfig controls priming-context assembly for the engine.
type ContextConfig struct {
	// Stitching toggles clipboard/history priming entirely.
	Stitching bool
}

// CadenceConfig controls adaptive-silence learning.
type CadenceConfig struct {
	// AdaptiveSilence toggles the learned auto-stop threshold.
	AdaptiveSilence bool
	// Feedback toggles post-session speech coaching labels.
	Feedback bool
}

// HistoryConfig controls the transcription history store.
type HistoryConfig struct {
	Enable bool
	// MaxEntries bounds the stored history; 0 means unbounded.
	MaxEntries int
}

// NotifyConfig controls desktop notices.
type NotifyConfig struct {
	Enable  bool
	AppName string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Message string
}
