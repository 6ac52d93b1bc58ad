// Package flow tracks DRTIO flow-control state: per-channel FIFO
// occupancy and timestamp monotonicity, plus the cumulative link counters
// used to detect packet loss between polls.
package flow

import (
	"fmt"
	"sync"
)

// DefaultFifoDepth is the post-link-reset FIFO depth assumed for a
// channel until hardware reports otherwise.
const DefaultFifoDepth uint16 = 64

// ErrorKind classifies flow-control violations.
type ErrorKind int

const (
	// KindNoSpace indicates an admission attempt with no free FIFO slot.
	KindNoSpace ErrorKind = iota
	// KindNonMonotonic indicates an admission attempt with a timestamp
	// behind the channel's last admitted event.
	KindNonMonotonic
)

// Error reports a refused admission. The tracker refuses the operation
// rather than corrupting channel state; the scheduler decides how to
// recover.
type Error struct {
	Kind      ErrorKind
	Channel   uint32
	Timestamp uint64
	// Last is the channel's last admitted timestamp (monotonicity
	// violations only).
	Last uint64
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNoSpace:
		return fmt.Sprintf("channel %d: no fifo space for event at %d", e.Channel, e.Timestamp)
	case KindNonMonotonic:
		return fmt.Sprintf("channel %d: event at %d behind last timestamp %d", e.Channel, e.Timestamp, e.Last)
	default:
		return fmt.Sprintf("channel %d: flow violation", e.Channel)
	}
}

// ChannelState is the flow-control state of one DRTIO channel.
type ChannelState struct {
	// FifoSpace is the count of free output FIFO slots. Never negative:
	// it only decreases on successful admission and increases only on a
	// confirmed hardware refresh or explicit reset.
	FifoSpace uint16
	// LastTimestamp is the timestamp of the last admitted event.
	LastTimestamp uint64
}

// Counters is a snapshot of the cumulative, monotonically increasing link
// counters. Consumers compute deltas between polls to detect loss or
// duplication on the underlying link.
type Counters struct {
	Tx           uint32
	Rx           uint32
	FifoSpaceReq uint32
}

// Delta returns the per-counter difference since an earlier snapshot,
// accounting for u32 wraparound.
func (c Counters) Delta(prev Counters) Counters {
	return Counters{
		Tx:           c.Tx - prev.Tx,
		Rx:           c.Rx - prev.Rx,
		FifoSpaceReq: c.FifoSpaceReq - prev.FifoSpaceReq,
	}
}

// NeedsReset reports whether the counter deltas of the two link ends
// disagree: everything transmitted locally must have arrived at the peer
// and vice versa. A mismatch signals loss or duplication and must trigger
// a channel state reset, never be silently ignored.
func NeedsReset(localDelta, peerDelta Counters) bool {
	return localDelta.Tx != peerDelta.Rx || peerDelta.Tx != localDelta.Rx
}

// Tracker owns the flow-control bookkeeping for all channels behind one
// link. Channels materialize with post-reset defaults on first use.
type Tracker struct {
	mu        sync.Mutex
	fifoDepth uint16
	channels  map[uint32]ChannelState
	counters  Counters
}

// NewTracker creates a tracker whose channels reset to the given FIFO
// depth. Zero selects DefaultFifoDepth.
func NewTracker(fifoDepth uint16) *Tracker {
	if fifoDepth == 0 {
		fifoDepth = DefaultFifoDepth
	}
	return &Tracker{
		fifoDepth: fifoDepth,
		channels:  make(map[uint32]ChannelState),
	}
}

func (t *Tracker) channelLocked(ch uint32) ChannelState {
	state, ok := t.channels[ch]
	if !ok {
		state = ChannelState{FifoSpace: t.fifoDepth}
		t.channels[ch] = state
	}
	return state
}

// ChannelState returns the current state of a channel.
func (t *Tracker) ChannelState(ch uint32) ChannelState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.channelLocked(ch)
}

// Admit records one event at the given timestamp on a channel. Admissible
// only if the timestamp is not behind the last admitted event and a FIFO
// slot is free; admission decrements the free count and advances the last
// timestamp.
func (t *Tracker) Admit(ch uint32, timestamp uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.channelLocked(ch)
	if timestamp < state.LastTimestamp {
		return &Error{Kind: KindNonMonotonic, Channel: ch, Timestamp: timestamp, Last: state.LastTimestamp}
	}
	if state.FifoSpace == 0 {
		return &Error{Kind: KindNoSpace, Channel: ch, Timestamp: timestamp}
	}

	state.FifoSpace--
	state.LastTimestamp = timestamp
	t.channels[ch] = state
	t.counters.Tx++
	return nil
}

// ResetChannel reinitializes a channel's counters to their post-link-reset
// defaults. Must be called after any detected link resynchronization.
func (t *Tracker) ResetChannel(ch uint32) {
	t.mu.Lock()
	t.channels[ch] = ChannelState{FifoSpace: t.fifoDepth}
	t.mu.Unlock()
}

// RefreshFifoSpace installs a FIFO space value confirmed by hardware
// drain and counts the request.
func (t *Tracker) RefreshFifoSpace(ch uint32, space uint16) {
	t.mu.Lock()
	state := t.channelLocked(ch)
	state.FifoSpace = space
	t.channels[ch] = state
	t.counters.FifoSpaceReq++
	t.mu.Unlock()
}

// RecordRx counts one packet received from the link.
func (t *Tracker) RecordRx() {
	t.mu.Lock()
	t.counters.Rx++
	t.mu.Unlock()
}

// Counters returns a snapshot of the cumulative link counters.
func (t *Tracker) Counters() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counters
}
