package session

import (
	"sync"
	"time"
)

// Watchdogs is the host-owned watchdog table. Each set watchdog gets a
// fresh id unique among the active ones; a watchdog left unclaimed past
// its deadline forces the run to Aborted (the dispatch loop owns that
// policy, the table only answers deadline queries).
type Watchdogs struct {
	mu        sync.Mutex
	now       func() time.Time
	next      uint32
	deadlines map[uint32]time.Time
}

// NewWatchdogs creates an empty table. now is injectable for tests; nil
// selects time.Now.
func NewWatchdogs(now func() time.Time) *Watchdogs {
	if now == nil {
		now = time.Now
	}
	return &Watchdogs{now: now, deadlines: make(map[uint32]time.Time)}
}

// Set arms a watchdog expiring after the given interval and returns its
// id.
func (w *Watchdogs) Set(millis uint64) uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	for {
		id := w.next
		w.next++
		if _, active := w.deadlines[id]; !active {
			w.deadlines[id] = w.now().Add(time.Duration(millis) * time.Millisecond)
			return id
		}
	}
}

// Clear disarms a watchdog. Clearing an unknown id is a no-op: the
// watchdog may already have fired and been removed.
func (w *Watchdogs) Clear(id uint32) {
	w.mu.Lock()
	delete(w.deadlines, id)
	w.mu.Unlock()
}

// Active returns the number of armed watchdogs.
func (w *Watchdogs) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.deadlines)
}

// NextDeadline returns the earliest armed deadline, if any.
func (w *Watchdogs) NextDeadline() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	var earliest time.Time
	found := false
	for _, d := range w.deadlines {
		if !found || d.Before(earliest) {
			earliest = d
			found = true
		}
	}
	return earliest, found
}

// UntilNext returns the interval to the earliest armed deadline, measured
// on the table's own clock so an injected clock and the wakeup timer
// cannot disagree. Negative means already past due.
func (w *Watchdogs) UntilNext() (time.Duration, bool) {
	deadline, ok := w.NextDeadline()
	if !ok {
		return 0, false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return deadline.Sub(w.now()), true
}

// Expired returns the id of an armed watchdog whose deadline has passed.
func (w *Watchdogs) Expired() (uint32, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	for id, d := range w.deadlines {
		if !d.After(now) {
			return id, true
		}
	}
	return 0, false
}
