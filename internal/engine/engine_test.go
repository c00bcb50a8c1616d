package engine

import (
	"os"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/6m8bzpx42z-ship-it/MuttR/internal/config"
)

func TestNewDefaultsToWhisper(t *testing.T) {
	eng, warning := New(config.EngineConfig{Name: "whisper", Model: "base.en", WhisperBin: "whisper-cli"})
	assert.Equal(t, "whisper", eng.Name())
	assert.Empty(t, warning)
}

func TestNewParakeetFallsBackWhenBinaryMissing(t *testing.T) {
	eng, warning := New(config.EngineConfig{
		Name:        "parakeet",
		Model:       "base.en",
		WhisperBin:  "whisper-cli",
		ParakeetBin: "definitely-not-installed-parakeet",
	})
	assert.Equal(t, "whisper", eng.Name())
	assert.Contains(t, warning, "falling back to whisper")
}

func TestWordTiers(t *testing.T) {
	assert.Equal(t, TierHigh, Word{Probability: 0.95}.Tier())
	assert.Equal(t, TierHigh, Word{Probability: 0.7}.Tier())
	assert.Equal(t, TierMedium, Word{Probability: 0.5}.Tier())
	assert.Equal(t, TierLow, Word{Probability: 0.1}.Tier())
}

func TestResultConfidence(t *testing.T) {
	r := Result{Words: []Word{{Probability: 0.8}, {Probability: 0.6}}}
	assert.InDelta(t, 0.7, r.Confidence(), 1e-9)
	assert.Zero(t, Result{Text: "hi"}.Confidence())
}

func TestResultLowConfidenceWords(t *testing.T) {
	r := Result{Words: []Word{
		{Word: "solid", Probability: 0.9},
		{Word: "shaky", Probability: 0.5},
		{Word: "bad", Probability: 0.2},
	}}
	low := r.LowConfidenceWords()
	require.Len(t, low, 2)
	assert.Equal(t, "shaky", low[0].Word)
	assert.Equal(t, "bad", low[1].Word)
}

func TestWriteTempWAV(t *testing.T) {
	samples := make([]float32, 1600) // 100ms
	for i := range samples {
		samples[i] = 0.25
	}

	path, cleanup, err := writeTempWAV(samples)
	require.NoError(t, err)
	defer cleanup()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 1600, len(buf.Data))
	assert.Equal(t, 16000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
	assert.InDelta(t, 8191, buf.Data[0], 1)
}

func TestWhisperArgsIncludePromptWhenSet(t *testing.T) {
	args := whisperArgs("/m/ggml-base.en.bin", "/tmp/a.wav", "/tmp/a", "Continue: hello")
	assert.Contains(t, args, "--prompt")
	assert.Contains(t, args, "Continue: hello")

	bare := whisperArgs("/m/ggml-base.en.bin", "/tmp/a.wav", "/tmp/a", "")
	assert.NotContains(t, bare, "--prompt")
}

func TestParseWhisperJSON(t *testing.T) {
	data := []byte(`{
		"transcription": [
			{
				"text": " Hello world",
				"offsets": {"from": 0, "to": 1200},
				"tokens": [
					{"text": "[_BEG_]", "p": 1.0, "offsets": {"from": 0, "to": 0}},
					{"text": " Hello", "p": 0.98, "offsets": {"from": 0, "to": 500}},
					{"text": " wor", "p": 0.9, "offsets": {"from": 500, "to": 900}},
					{"text": "ld", "p": 0.8, "offsets": {"from": 900, "to": 1200}}
				]
			}
		]
	}`)

	result, err := parseWhisperJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", result.Text)
	require.Len(t, result.Words, 2)
	assert.Equal(t, "Hello", result.Words[0].Word)
	assert.Equal(t, "world", result.Words[1].Word)
	assert.InDelta(t, 0.5, result.Words[1].Start, 1e-9)
	assert.InDelta(t, 1.2, result.Words[1].End, 1e-9)
	// Continuation tokens blend into the word probability.
	assert.Greater(t, result.Words[1].Probability, 0.8)
	assert.Less(t, result.Words[1].Probability, 0.9)
}

func TestParseWhisperJSONMalformed(t *testing.T) {
	_, err := parseWhisperJSON([]byte("not json"))
	assert.Error(t, err)
}

func TestParseParakeetJSON(t *testing.T) {
	data := []byte(`{"text": " meet me friday ", "words": [{"word": "meet", "start": 0, "end": 0.3, "probability": 0.91}]}`)
	result, err := parseParakeetJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "meet me friday", result.Text)
	require.Len(t, result.Words, 1)
	assert.Equal(t, "meet", result.Words[0].Word)
}
