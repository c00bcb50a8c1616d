package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

// parakeetEngine shells out to a parakeet CLI wrapper that reads a WAV
// path and prints one JSON object on stdout:
//
//	{"text": "...", "words": [{"word": "...", "start": 0.0, "end": 0.4, "probability": 0.93}]}
//
// The words array is optional; transcripts without it fall back to
// segment-level confidence handling upstream.
type parakeetEngine struct {
	bin   string
	model string
}

func newParakeet(cfg config.EngineConfig) *parakeetEngine {
	return &parakeetEngine{bin: cfg.ParakeetBin, model: cfg.Model}
}

func (e *parakeetEngine) Name() string { return "parakeet" }

func (e *parakeetEngine) Load(_ context.Context) error {
	if _, err := exec.LookPath(e.bin); err != nil {
		return fmt.Errorf("parakeet binary %q: %w", e.bin, err)
	}
	return nil
}

func (e *parakeetEngine) Transcribe(ctx context.Context, samples []float32, prompt string) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.New("no audio to transcribe")
	}

	wavPath, cleanupWAV, err := writeTempWAV(samples)
	if err != nil {
		return Result{}, err
	}
	defer cleanupWAV()

	args := []string{"--audio", wavPath, "--output", "json"}
	if e.model != "" {
		args = append(args, "--model", e.model)
	}
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}

	cmd := exec.CommandContext(ctx, e.bin, args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("parakeet: %s", firstLine(exitErr.Stderr))
		}
		return Result{}, fmt.Errorf("parakeet: %w", err)
	}
	return parseParakeetJSON(out)
}

func parseParakeetJSON(data []byte) (Result, error) {
	var parsed struct {
		Text  string `json:"text"`
		Words []struct {
			Word        string  `json:"word"`
			Start       float64 `json:"start"`
			End         float64 `json:"end"`
			Probability float64 `json:"probability"`
		} `json:"words"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse parakeet json: %w", err)
	}

	result := Result{Text: cleanOutput(parsed.Text)}
	for _, w := range parsed.Words {
		result.Words = append(result.Words, Word{
			Word:        w.Word,
			Start:       w.Start,
			End:         w.End,
			Probability: w.Probability,
		})
	}
	return result, nil
}
