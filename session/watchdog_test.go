package session

import (
	"testing"
	"time"
)

// fakeClock is an adjustable watchdog clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestWatchdogs_FreshIDs(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := NewWatchdogs(clock.Now)

	a := w.Set(100)
	b := w.Set(100)
	if a == b {
		t.Errorf("two active watchdogs share id %d", a)
	}
	if w.Active() != 2 {
		t.Errorf("Active = %d, want 2", w.Active())
	}
}

func TestWatchdogs_ClearUnknownIsNoop(t *testing.T) {
	w := NewWatchdogs(nil)
	w.Clear(42)
	if w.Active() != 0 {
		t.Errorf("Active = %d, want 0", w.Active())
	}
}

func TestWatchdogs_Expiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	w := NewWatchdogs(clock.Now)

	id := w.Set(50)
	if _, expired := w.Expired(); expired {
		t.Error("watchdog expired immediately")
	}
	clock.Advance(49 * time.Millisecond)
	if _, expired := w.Expired(); expired {
		t.Error("watchdog expired before its deadline")
	}
	clock.Advance(1 * time.Millisecond)
	got, expired := w.Expired()
	if !expired || got != id {
		t.Errorf("Expired = (%d, %v), want (%d, true)", got, expired, id)
	}
}

func TestWatchdogs_ClearedDoesNotExpire(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := NewWatchdogs(clock.Now)

	id := w.Set(10)
	w.Clear(id)
	clock.Advance(time.Minute)
	if _, expired := w.Expired(); expired {
		t.Error("cleared watchdog expired")
	}
	if _, ok := w.NextDeadline(); ok {
		t.Error("cleared watchdog still has a deadline")
	}
}

func TestWatchdogs_NextDeadlineIsEarliest(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := NewWatchdogs(clock.Now)

	w.Set(500)
	w.Set(100)
	deadline, ok := w.NextDeadline()
	if !ok {
		t.Fatal("NextDeadline = none, want earliest")
	}
	want := clock.now.Add(100 * time.Millisecond)
	if !deadline.Equal(want) {
		t.Errorf("NextDeadline = %v, want %v", deadline, want)
	}
}

func TestWatchdogs_UntilNextUsesOwnClock(t *testing.T) {
	// The clock sits at the epoch, decades behind the wall clock: the
	// interval must come from the table's clock, not the real one.
	clock := &fakeClock{now: time.Unix(0, 0)}
	w := NewWatchdogs(clock.Now)

	if _, ok := w.UntilNext(); ok {
		t.Fatal("empty table reported a next deadline")
	}

	w.Set(50)
	wait, ok := w.UntilNext()
	if !ok {
		t.Fatal("armed table reported no next deadline")
	}
	if wait != 50*time.Millisecond {
		t.Errorf("UntilNext = %v, want 50ms", wait)
	}

	clock.Advance(20 * time.Millisecond)
	if wait, _ := w.UntilNext(); wait != 30*time.Millisecond {
		t.Errorf("UntilNext after 20ms = %v, want 30ms", wait)
	}

	clock.Advance(40 * time.Millisecond)
	if wait, _ := w.UntilNext(); wait >= 0 {
		t.Errorf("UntilNext past deadline = %v, want negative", wait)
	}
}
