// Package cadence learns the user's speaking rhythm and adapts the
// silence auto-stop threshold to it. Only numeric timing data is
// persisted; no audio or transcript content ever touches disk here.
package cadence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pause detection thresholds.
const (
	rmsFloor   = 0.005
	minPauseMS = 100
)

// SilenceFloor is the RMS level below which a block counts as silence,
// both for pause learning and for the auto-stop watcher.
const SilenceFloor = rmsFloor

// EMA smoothing factor for merging session stats into the profile.
const emaAlpha = 0.1

// minSamples is how many pauses the profile needs before it counts
// as trained.
const minSamples = 20

// Bounds on the adaptive auto-stop threshold.
const (
	floorMS         = 800
	ceilMS          = 3000
	DefaultAutoStop = 2000 * time.Millisecond
)

// Speaking pace labels derived from mean pause duration.
const (
	PaceFast       = "Fast"
	PaceAverage    = "Average"
	PaceDeliberate = "Deliberate"
)

// Profile holds aggregated pause statistics across sessions.
type Profile struct {
	MeanPauseMS float64 `json:"mean_pause_ms"`
	P75PauseMS  float64 `json:"p75_pause_ms"`
	P90PauseMS  float64 `json:"p90_pause_ms"`
	SampleCount int     `json:"sample_count"`
}

// Trained reports whether enough pause samples have accumulated for
// the profile to drive adaptive behavior.
func (p Profile) Trained() bool {
	return p.SampleCount >= minSamples
}

// PaceLabel categorizes the user's speaking pace.
func (p Profile) PaceLabel() string {
	if !p.Trained() {
		return PaceAverage
	}
	switch {
	case p.MeanPauseMS < 300:
		return PaceFast
	case p.MeanPauseMS <= 600:
		return PaceAverage
	default:
		return PaceDeliberate
	}
}

// AutoStop returns the adaptive silence threshold: twice the 90th
// percentile pause, clamped to [800ms, 3s]. Untrained profiles, or
// adaptive disabled, fall back to the 2s default.
func (p Profile) AutoStop(adaptive bool) time.Duration {
	if !adaptive || !p.Trained() {
		return DefaultAutoStop
	}
	raw := time.Duration(p.P90PauseMS*2.0) * time.Millisecond
	if raw < floorMS*time.Millisecond {
		return floorMS * time.Millisecond
	}
	if raw > ceilMS*time.Millisecond {
		return ceilMS * time.Millisecond
	}
	return raw
}

// Store persists cadence data as JSON files under one directory.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created
// lazily on first save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) profilePath() string {
	return filepath.Join(s.dir, "cadence.json")
}

func (s *Store) speechPath() string {
	return filepath.Join(s.dir, "speech_profile.json")
}

// LoadProfile reads the persisted profile. A missing or corrupt file
// yields a zero profile rather than an error: cadence data is an
// optimization, never a hard dependency.
func (s *Store) LoadProfile() Profile {
	var p Profile
	data, err := os.ReadFile(s.profilePath())
	if err != nil {
		return Profile{}
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}
	}
	return p
}

// SaveProfile writes the profile to disk.
func (s *Store) SaveProfile(p Profile) error {
	return s.writeJSON(s.profilePath(), p)
}

// ResetProfile deletes the persisted profile.
func (s *Store) ResetProfile() {
	os.Remove(s.profilePath())
}

func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create cadence dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
