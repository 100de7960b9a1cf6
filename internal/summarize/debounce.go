package summarize

import (
	"sync"
	"time"
)

// Debounce decides when an analysis pass is due: at most once per minEntries
// new transcript entries or maxInterval elapsed, whichever comes first. This
// replaces ad hoc transcript-length modulo checks with an explicit policy
// that is independent of whether the backend is live or mocked.
type Debounce struct {
	minEntries  int
	maxInterval time.Duration

	mu        sync.Mutex
	lastCount int
	lastTime  time.Time
	now       func() time.Time
}

func NewDebounce(minEntries int, maxInterval time.Duration) *Debounce {
	return &Debounce{
		minEntries:  minEntries,
		maxInterval: maxInterval,
		now:         time.Now,
	}
}

// Ready reports whether a pass is due for a transcript of entryCount entries,
// and records the pass when it is.
func (d *Debounce) Ready(entryCount int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entryCount == 0 {
		return false
	}

	now := d.now()
	if d.lastTime.IsZero() {
		// first observation anchors the interval clock
		d.lastTime = now
	}

	newEntries := entryCount - d.lastCount
	if newEntries < d.minEntries && now.Sub(d.lastTime) < d.maxInterval {
		return false
	}
	if newEntries <= 0 {
		return false // interval elapsed but nothing new to analyze
	}

	d.lastCount = entryCount
	d.lastTime = now
	return true
}

// Reset clears the policy for a new recording session.
func (d *Debounce) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastCount = 0
	d.lastTime = time.Time{}
}
