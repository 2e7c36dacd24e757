package aggregate

import "time"

// Window bounds. Entries older than retention are evicted every cycle; if the
// remainder still exceeds maxEntries the oldest excess is dropped regardless
// of age, bounding memory independent of event rate.
const (
	retention  = time.Hour
	maxEntries = 50
)

// event is one (timestamp, magnitude) entry in a trend window.
type event struct {
	at        time.Time
	magnitude int
}

// window is an ordered bounded sequence of events, oldest first.
type window struct {
	events []event
}

func (w *window) add(at time.Time, magnitude int) {
	w.events = append(w.events, event{at: at, magnitude: magnitude})
}

// evict drops entries older than the retention horizon, then trims the
// oldest entries beyond the cap.
func (w *window) evict(now time.Time) {
	cutoff := now.Add(-retention)
	i := 0
	for i < len(w.events) && !w.events[i].at.After(cutoff) {
		i++
	}
	w.events = w.events[i:]

	if excess := len(w.events) - maxEntries; excess > 0 {
		w.events = w.events[excess:]
	}
}

func (w *window) count() int { return len(w.events) }

func (w *window) sum() int {
	total := 0
	for _, e := range w.events {
		total += e.magnitude
	}
	return total
}

func (w *window) oldest() (time.Time, bool) {
	if len(w.events) == 0 {
		return time.Time{}, false
	}
	return w.events[0].at, true
}

// TrendTracker maintains the two bounded event windows persisting across
// cycles: assignment-change events and recovery events. It is owned by the
// aggregation engine and only touched under the engine's lock.
type TrendTracker struct {
	changes    window
	recoveries window
}

// NewTrendTracker returns an empty tracker.
func NewTrendTracker() *TrendTracker { return &TrendTracker{} }

// Evict applies both window bounds. It runs once per cycle, before
// aggregation.
func (t *TrendTracker) Evict(now time.Time) {
	t.changes.evict(now)
	t.recoveries.evict(now)
}

// RecordChange appends one assignment-change event of the given magnitude.
func (t *TrendTracker) RecordChange(at time.Time, magnitude int) {
	t.changes.add(at, magnitude)
}

// RecordRecovery appends one error→success recovery event.
func (t *TrendTracker) RecordRecovery(at time.Time) {
	t.recoveries.add(at, 1)
}

// ChangeSum returns the summed magnitudes of retained change events.
func (t *TrendTracker) ChangeSum() int { return t.changes.sum() }

// ChangeEvents returns the number of retained change events.
func (t *TrendTracker) ChangeEvents() int { return t.changes.count() }

// OldestChange returns the timestamp of the oldest retained change event.
func (t *TrendTracker) OldestChange() (time.Time, bool) { return t.changes.oldest() }

// Recoveries returns the number of retained recovery events.
func (t *TrendTracker) Recoveries() int { return t.recoveries.count() }
