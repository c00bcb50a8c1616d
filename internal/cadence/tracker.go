package cadence

import (
	"sort"
	"time"
)

// Tracker collects intra-speech pauses during one recording session.
// Feed it the current RMS level once per audio block via Update, then
// call Finish to fold the session into the persistent profile.
//
// Leading silence before the first speech block is not a pause; only
// gaps between speech count.
type Tracker struct {
	inPause    bool
	pauseStart time.Time
	hadSpeech  bool
	pauses     []float64

	now func() time.Time
}

// NewTracker returns a tracker for a single recording session.
func NewTracker() *Tracker {
	return &Tracker{now: time.Now}
}

// Update registers the RMS level of the latest audio block.
func (t *Tracker) Update(rms float64) {
	now := t.now()

	if rms < rmsFloor {
		if !t.inPause {
			t.inPause = true
			t.pauseStart = now
		}
		return
	}

	if t.inPause && t.hadSpeech {
		pauseMS := float64(now.Sub(t.pauseStart)) / float64(time.Millisecond)
		if pauseMS >= minPauseMS {
			t.pauses = append(t.pauses, pauseMS)
		}
	}
	t.inPause = false
	t.hadSpeech = true
}

// SessionPauses returns the pause durations collected so far, in
// milliseconds.
func (t *Tracker) SessionPauses() []float64 {
	out := make([]float64, len(t.pauses))
	copy(out, t.pauses)
	return out
}

// Finish merges this session's pauses into the stored profile using
// an exponential moving average and persists the result. Sessions
// with no qualifying pauses leave the profile untouched.
func (t *Tracker) Finish(store *Store) (Profile, error) {
	profile := store.LoadProfile()
	if len(t.pauses) == 0 {
		return profile, nil
	}

	sorted := make([]float64, len(t.pauses))
	copy(sorted, t.pauses)
	sort.Float64s(sorted)

	n := len(sorted)
	var sum float64
	for _, p := range sorted {
		sum += p
	}
	mean := sum / float64(n)
	p75 := mean
	if n >= 4 {
		p75 = sorted[n*75/100]
	}
	p90 := p75
	if n >= 10 {
		p90 = sorted[n*90/100]
	}

	if profile.SampleCount == 0 {
		profile.MeanPauseMS = mean
		profile.P75PauseMS = p75
		profile.P90PauseMS = p90
	} else {
		const a = emaAlpha
		profile.MeanPauseMS = (1-a)*profile.MeanPauseMS + a*mean
		profile.P75PauseMS = (1-a)*profile.P75PauseMS + a*p75
		profile.P90PauseMS = (1-a)*profile.P90PauseMS + a*p90
	}
	profile.SampleCount += n

	if err := store.SaveProfile(profile); err != nil {
		return profile, err
	}
	return profile, nil
}
