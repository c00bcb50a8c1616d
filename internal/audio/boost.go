package audio

import (
	"math"
	"sort"
)

// Boost mode defaults.
const (
	DefaultBoostGain   = 3.0
	DefaultNoiseGateDB = -50.0
	calibrationSamples = 8000 // 500ms at 16kHz
)

// Processor boosts whisper-quiet input so users can dictate at a
// murmur in shared spaces. It gates ambient noise, multiplies gain,
// and soft-clips the result.
//
// The first half second of audio fed through Process doubles as the
// ambient calibration window; Calibrate can also be called directly
// with a known-silent chunk.
type Processor struct {
	gain          float64
	gateThreshold float64

	calibrated bool
	calBuf     []float32
	noiseFloor float64
}

// NewProcessor returns a boost processor. gain must be positive and
// noiseGateDB is in dBFS (negative).
func NewProcessor(gain, noiseGateDB float64) *Processor {
	return &Processor{
		gain:          gain,
		gateThreshold: math.Pow(10, noiseGateDB/20),
	}
}

// Calibrate estimates the ambient noise floor from a silence chunk,
// using the 85th percentile of absolute sample values so outliers do
// not skew the estimate.
func (p *Processor) Calibrate(chunk []float32) {
	if len(chunk) == 0 {
		return
	}
	abs := make([]float64, len(chunk))
	for i, s := range chunk {
		abs[i] = math.Abs(float64(s))
	}
	sort.Float64s(abs)
	p.noiseFloor = abs[len(abs)*85/100]
	p.calibrated = true
}

// NoiseFloor returns the calibrated ambient level, or 0 before
// calibration.
func (p *Processor) NoiseFloor() float64 {
	return p.noiseFloor
}

// Process applies the gate, gain, and soft clip to one chunk and
// returns a new slice.
func (p *Processor) Process(samples []float32) []float32 {
	if len(samples) == 0 {
		return samples
	}

	if !p.calibrated {
		p.calBuf = append(p.calBuf, samples...)
		if len(p.calBuf) >= calibrationSamples {
			p.Calibrate(p.calBuf)
			p.calBuf = nil
		}
	}

	gate := p.gateThreshold
	if floor := p.noiseFloor * 1.5; floor > gate {
		gate = floor
	}

	// At unity gain nothing needs clipping, so gated samples pass
	// through untouched and the processor reduces to the gate alone.
	unity := p.gain == 1

	out := make([]float32, len(samples))
	for i, s := range samples {
		v := float64(s)
		if math.Abs(v) < gate {
			continue
		}
		if unity {
			out[i] = s
			continue
		}
		out[i] = float32(math.Tanh(v * p.gain))
	}
	return out
}
