// Package engine wraps on-device transcription backends behind one
// interface. Backends run as local subprocesses; no audio ever leaves
// the machine.
package engine

import (
	"context"
	"os/exec"
	"strings"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

// Confidence tier thresholds for the per-word heatmap.
const (
	highThreshold = 0.7
	lowThreshold  = 0.4

	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Word is one transcribed word with timing and confidence.
type Word struct {
	Word        string
	Start       float64
	End         float64
	Probability float64
}

// Tier classifies the word's confidence for display.
func (w Word) Tier() string {
	if w.Probability >= highThreshold {
		return TierHigh
	}
	if w.Probability >= lowThreshold {
		return TierMedium
	}
	return TierLow
}

// Result is a finished transcription, with per-word confidence when
// the backend provides it.
type Result struct {
	Text  string
	Words []Word
}

// Confidence is the mean word probability, or 0 when the backend gave
// no word data.
func (r Result) Confidence() float64 {
	if len(r.Words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range r.Words {
		sum += w.Probability
	}
	return sum / float64(len(r.Words))
}

// LowConfidenceWords returns words below the high tier.
func (r Result) LowConfidenceWords() []Word {
	var out []Word
	for _, w := range r.Words {
		if w.Tier() != TierHigh {
			out = append(out, w)
		}
	}
	return out
}

// Engine is a pluggable transcription backend.
type Engine interface {
	// Name identifies the backend ("whisper", "parakeet").
	Name() string

	// Load prepares the backend. For subprocess backends this verifies
	// the binary and model so the first utterance does not pay the cost.
	Load(ctx context.Context) error

	// Transcribe converts 16kHz mono samples to text. prompt, when
	// non-empty, primes the model with recent context.
	Transcribe(ctx context.Context, samples []float32, prompt string) (Result, error)
}

// New builds the configured engine. An unavailable Parakeet binary
// falls back to Whisper; the returned warning explains any such
// substitution. Whisper is always constructible.
func New(cfg config.EngineConfig) (Engine, string) {
	if cfg.Name == "parakeet" {
		if _, err := exec.LookPath(cfg.ParakeetBin); err == nil {
			return newParakeet(cfg), ""
		}
		return newWhisper(cfg), "parakeet binary " + cfg.ParakeetBin + " not found in PATH; falling back to whisper"
	}
	return newWhisper(cfg), ""
}

// cleanOutput trims subprocess noise from transcribed text.
func cleanOutput(text string) string {
	return strings.TrimSpace(text)
}
