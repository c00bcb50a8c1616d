package cadence

import (
	"encoding/json"
	"math"
	"os"
	"regexp"
	"strings"
	"time"
)

// Feedback labels surfaced to the user after a transcription.
const (
	FeedbackFast   = "Fast"
	FeedbackQuiet  = "Quiet"
	FeedbackClear  = "Clear"
	FeedbackSteady = "Steady"
)

const (
	speechWindow     = 100
	speechMinEntries = 5
)

// Counts hesitation words for coaching. Kept separate from the cleanup
// vocabulary so the two can evolve independently.
var coachFillerRe = regexp.MustCompile(`(?i)\bum\b|\buh\b|\blike\b|\byou know\b|\bbasically\b|\bactually\b|\bliterally\b|\bi mean\b|\bsort of\b|\bkind of\b`)

// Metrics are per-utterance speech quality numbers.
type Metrics struct {
	WPM         float64 `json:"wpm"`
	EnergyRMS   float64 `json:"energy_rms"`
	Confidence  float64 `json:"confidence"`
	FillerCount int     `json:"filler_count"`
	WordCount   int     `json:"word_count"`
}

// Analyze computes metrics for one utterance from the raw samples,
// the transcript, and the capture duration.
func Analyze(samples []float32, transcript string, duration time.Duration, confidence float64) Metrics {
	var wordCount int
	if strings.TrimSpace(transcript) != "" {
		wordCount = len(strings.Fields(transcript))
	}
	var wpm float64
	if duration > 0 {
		wpm = float64(wordCount) / duration.Seconds() * 60
	}
	var energy float64
	if len(samples) > 0 {
		var sum float64
		for _, s := range samples {
			sum += float64(s) * float64(s)
		}
		energy = math.Sqrt(sum / float64(len(samples)))
	}
	return Metrics{
		WPM:         wpm,
		EnergyRMS:   energy,
		Confidence:  confidence,
		FillerCount: len(coachFillerRe.FindAllString(transcript, -1)),
		WordCount:   wordCount,
	}
}

// SpeechProfile keeps a rolling window of metrics and baselines for
// the user's normal pace and loudness.
type SpeechProfile struct {
	Entries        []Metrics `json:"entries"`
	BaselineWPM    float64   `json:"baseline_wpm"`
	BaselineEnergy float64   `json:"baseline_energy"`
}

// Update appends new metrics, trims the window, and recomputes the
// baselines.
func (p *SpeechProfile) Update(m Metrics) {
	p.Entries = append(p.Entries, m)
	if len(p.Entries) > speechWindow {
		p.Entries = p.Entries[len(p.Entries)-speechWindow:]
	}
	p.recompute()
}

func (p *SpeechProfile) recompute() {
	var wpmSum, wpmN, energySum, energyN float64
	for _, e := range p.Entries {
		if e.WPM > 0 {
			wpmSum += e.WPM
			wpmN++
		}
		if e.EnergyRMS > 0 {
			energySum += e.EnergyRMS
			energyN++
		}
	}
	p.BaselineWPM = 0
	if wpmN > 0 {
		p.BaselineWPM = wpmSum / wpmN
	}
	p.BaselineEnergy = 0
	if energyN > 0 {
		p.BaselineEnergy = energySum / energyN
	}
}

// HasBaseline reports whether enough entries exist for feedback to
// mean anything.
func (p *SpeechProfile) HasBaseline() bool {
	return len(p.Entries) >= speechMinEntries
}

// Feedback compares metrics against the personal baseline and returns
// one of the feedback labels, or "" when nothing stands out or the
// baseline is not trained yet.
func (p *SpeechProfile) Feedback(m Metrics) string {
	if !p.HasBaseline() {
		return ""
	}
	if p.BaselineWPM > 0 && m.WPM > p.BaselineWPM*1.25 {
		return FeedbackFast
	}
	if p.BaselineEnergy > 0 && m.EnergyRMS < p.BaselineEnergy*0.4 {
		return FeedbackQuiet
	}
	if m.Confidence > 0.92 && m.FillerCount == 0 {
		return FeedbackClear
	}
	if m.Confidence > 0.8 {
		return FeedbackSteady
	}
	return ""
}

// LoadSpeechProfile reads the persisted speech profile; missing or
// corrupt files yield an empty profile.
func (s *Store) LoadSpeechProfile() *SpeechProfile {
	var p SpeechProfile
	data, err := os.ReadFile(s.speechPath())
	if err != nil {
		return &SpeechProfile{}
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return &SpeechProfile{}
	}
	if len(p.Entries) > speechWindow {
		p.Entries = p.Entries[len(p.Entries)-speechWindow:]
	}
	return &p
}

// SaveSpeechProfile writes the speech profile to disk.
func (s *Store) SaveSpeechProfile(p *SpeechProfile) error {
	return s.writeJSON(s.speechPath(), p)
}

// ResetSpeechProfile deletes the persisted speech profile.
func (s *Store) ResetSpeechProfile() {
	os.Remove(s.speechPath())
}
