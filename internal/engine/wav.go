package engine

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const sampleRate = 16000

// writeTempWAV encodes float32 samples as a 16-bit mono WAV in a temp
// file. The caller removes the file via the returned cleanup.
func writeTempWAV(samples []float32) (string, func(), error) {
	f, err := os.CreateTemp("", "muttr-*.wav")
	if err != nil {
		return "", nil, fmt.Errorf("create temp wav: %w", err)
	}
	path := f.Name()
	cleanup := func() { os.Remove(path) }

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		buf.Data[i] = v
	}

	if err := enc.Write(buf); err != nil {
		enc.Close()
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close wav: %w", err)
	}
	return path, cleanup, nil
}
