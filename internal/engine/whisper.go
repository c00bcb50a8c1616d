package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

// whisperEngine shells out to whisper.cpp's whisper-cli with JSON
// output, which carries per-token probabilities for the confidence
// heatmap.
type whisperEngine struct {
	bin   string
	model string
}

func newWhisper(cfg config.EngineConfig) *whisperEngine {
	return &whisperEngine{bin: cfg.WhisperBin, model: cfg.Model}
}

func (e *whisperEngine) Name() string { return "whisper" }

// Load verifies the binary and model file exist. The model itself is
// mmapped by whisper-cli per invocation, so there is nothing to keep
// resident here.
func (e *whisperEngine) Load(_ context.Context) error {
	if _, err := exec.LookPath(e.bin); err != nil {
		return fmt.Errorf("whisper binary %q: %w", e.bin, err)
	}
	model, err := e.modelPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(model); err != nil {
		return fmt.Errorf("whisper model %q: %w", model, err)
	}
	return nil
}

func (e *whisperEngine) modelPath() (string, error) {
	return ModelPath(e.model)
}

// ModelPath resolves a model name like "base.en" against the muttr
// data directory, or passes explicit paths through.
func ModelPath(model string) (string, error) {
	if strings.ContainsRune(model, os.PathSeparator) || strings.HasSuffix(model, ".bin") {
		return model, nil
	}
	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "models", "ggml-"+model+".bin"), nil
}

func (e *whisperEngine) Transcribe(ctx context.Context, samples []float32, prompt string) (Result, error) {
	if len(samples) == 0 {
		return Result{}, errors.New("no audio to transcribe")
	}

	wavPath, cleanupWAV, err := writeTempWAV(samples)
	if err != nil {
		return Result{}, err
	}
	defer cleanupWAV()

	model, err := e.modelPath()
	if err != nil {
		return Result{}, err
	}

	outBase := strings.TrimSuffix(wavPath, ".wav")
	args := whisperArgs(model, wavPath, outBase, prompt)
	cmd := exec.CommandContext(ctx, e.bin, args...)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("whisper-cli: %w: %s", err, firstLine(out))
	}

	jsonPath := outBase + ".json"
	defer os.Remove(jsonPath)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return Result{}, fmt.Errorf("read whisper output: %w", err)
	}
	return parseWhisperJSON(data)
}

func whisperArgs(model, wavPath, outBase, prompt string) []string {
	args := []string{
		"-m", model,
		"-f", wavPath,
		"--output-json-full",
		"--output-file", outBase,
		"--no-prints",
	}
	if prompt != "" {
		args = append(args, "--prompt", prompt)
	}
	return args
}

// whisperOutput mirrors whisper-cli's full JSON schema, reduced to
// the fields muttr consumes.
type whisperOutput struct {
	Transcription []struct {
		Text    string `json:"text"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Tokens []struct {
			Text    string  `json:"text"`
			P       float64 `json:"p"`
			Offsets struct {
				From int64 `json:"from"`
				To   int64 `json:"to"`
			} `json:"offsets"`
		} `json:"tokens"`
	} `json:"transcription"`
}

// parseWhisperJSON flattens segments into text plus per-word
// confidence. Tokens opening with a space start a new word; special
// tokens like [_BEG_] are skipped.
func parseWhisperJSON(data []byte) (Result, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("parse whisper json: %w", err)
	}

	var (
		text  strings.Builder
		words []Word
	)
	for _, seg := range out.Transcription {
		text.WriteString(seg.Text)
		for _, tok := range seg.Tokens {
			if strings.HasPrefix(tok.Text, "[_") {
				continue
			}
			startsWord := strings.HasPrefix(tok.Text, " ") || len(words) == 0
			if startsWord {
				words = append(words, Word{
					Word:        strings.TrimSpace(tok.Text),
					Start:       float64(tok.Offsets.From) / 1000,
					End:         float64(tok.Offsets.To) / 1000,
					Probability: tok.P,
				})
				continue
			}
			// Continuation token: extend the current word and average
			// its probability in.
			last := &words[len(words)-1]
			n := float64(len(last.Word))
			last.Word += tok.Text
			last.End = float64(tok.Offsets.To) / 1000
			last.Probability = (last.Probability*n + tok.P*float64(len(tok.Text))) / (n + float64(len(tok.Text)))
		}
	}

	return Result{Text: cleanOutput(text.String()), Words: words}, nil
}

func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
