package prefilter

// Tracker wraps a Prefilter with effectiveness tracking for one search.
//
// It counts candidates returned by the prefilter and the candidates the caller
// confirmed as matches. After a warmup period the ratio is checked at fixed
// intervals; when it falls below the threshold the tracker retires itself and
// the caller scans every position instead.
//
// A Tracker is not safe for concurrent use. Create one per search.
//
// Example usage:
//
//	tracker := prefilter.NewTracker(pf)
//	for start <= len(haystack) {
//	    if !tracker.Active() {
//	        // fall back to trying every position
//	    }
//	    pos := tracker.Find(haystack, start)
//	    if pos < 0 {
//	        break
//	    }
//	    if matchAt(pos) {
//	        tracker.Confirm()
//	        return pos
//	    }
//	    start = pos + 1
//	}
type Tracker struct {
	inner  Prefilter
	config TrackerConfig

	candidates     uint64
	confirms       uint64
	lastCheckpoint uint64
	active         bool
}

// TrackerConfig holds configuration for the effectiveness tracker.
type TrackerConfig struct {
	// CheckInterval is how often to check effectiveness (in candidates).
	// Default: 64
	CheckInterval uint64

	// MinEfficiency is the minimum acceptable ratio of confirms/candidates.
	// Default: 0.1
	MinEfficiency float64

	// WarmupPeriod is the number of candidates seen before the first check.
	// Default: 128
	WarmupPeriod uint64
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		CheckInterval: 64,
		MinEfficiency: 0.1,
		WarmupPeriod:  128,
	}
}

// NewTracker creates a tracker for inner with the default configuration.
// Returns nil if inner is nil.
func NewTracker(inner Prefilter) *Tracker {
	return NewTrackerWithConfig(inner, DefaultTrackerConfig())
}

// NewTrackerWithConfig creates a tracker with a custom configuration.
// Returns nil if inner is nil.
func NewTrackerWithConfig(inner Prefilter, config TrackerConfig) *Tracker {
	if inner == nil {
		return nil
	}
	return &Tracker{inner: inner, config: config, active: true}
}

// Find returns the next candidate at or after start, or -1 if there is none
// or the tracker is retired.
func (t *Tracker) Find(haystack []byte, start int) int {
	if !t.active {
		return -1
	}
	pos := t.inner.Find(haystack, start)
	if pos >= 0 {
		t.candidates++
		t.check()
	}
	return pos
}

// Confirm records that the last candidate was a real match.
func (t *Tracker) Confirm() {
	t.confirms++
}

// Active reports whether the prefilter is still in use.
func (t *Tracker) Active() bool {
	return t.active
}

// Stats returns the candidates and confirms seen and the resulting efficiency.
func (t *Tracker) Stats() (candidates, confirms uint64, efficiency float64) {
	if t.candidates > 0 {
		efficiency = float64(t.confirms) / float64(t.candidates)
	}
	return t.candidates, t.confirms, efficiency
}

// Reset clears the statistics and re-enables the prefilter.
func (t *Tracker) Reset() {
	t.candidates = 0
	t.confirms = 0
	t.lastCheckpoint = 0
	t.active = true
}

func (t *Tracker) check() {
	if t.candidates < t.config.WarmupPeriod {
		return
	}
	if t.candidates-t.lastCheckpoint < t.config.CheckInterval {
		return
	}
	t.lastCheckpoint = t.candidates

	if float64(t.confirms)/float64(t.candidates) < t.config.MinEfficiency {
		t.active = false
	}
}
