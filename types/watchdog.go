package types

// WatchdogSetRequest arms a supervisory timer with the given timeout in
// milliseconds. An unclaimed watchdog reaching its deadline forces the run
// to Aborted.
type WatchdogSetRequest struct {
	Millis uint64
}

// WatchdogSetReply returns the handle of the armed watchdog. Handles are
// unique among currently-active watchdogs only.
type WatchdogSetReply struct {
	ID uint32
}

// WatchdogClear disarms a watchdog. Clearing an unknown or already-cleared
// handle is a no-op, not an error.
type WatchdogClear struct {
	ID uint32
}

// Category implements Message.
func (WatchdogSetRequest) Category() Category { return CategoryWatchdog }

// Category implements Message.
func (WatchdogSetReply) Category() Category { return CategoryWatchdog }

// Category implements Message.
func (WatchdogClear) Category() Category { return CategoryWatchdog }
