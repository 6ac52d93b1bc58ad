package mailbox

import (
	"errors"
	"fmt"
	"sync"

	"github.com/orogen-io/sideband/types"
)

// DefaultArenaSize is the default exchange arena capacity.
const DefaultArenaSize = 64 * 1024

// ErrArenaExhausted is returned by Alloc when the arena's fixed capacity
// cannot satisfy the request. The arena never grows: the real-time side
// must not allocate unboundedly mid-run.
var ErrArenaExhausted = errors.New("exchange arena exhausted")

// Arena is the shared per-exchange scratch space. RPC arguments and
// results are pre-encoded into the arena and referenced by slot handles,
// so only handles cross the boundary. Slots are valid until Reset, which
// the host issues between kernel invocations.
type Arena struct {
	mu   sync.Mutex
	used int
	buf  []byte
}

// NewArena creates an arena with the given fixed capacity.
func NewArena(capacity int) *Arena {
	return &Arena{buf: make([]byte, capacity)}
}

// Alloc reserves n bytes and returns the slot handle of the reservation.
func (a *Arena) Alloc(n int) (types.Slot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if n < 0 || a.used+n > len(a.buf) {
		return 0, fmt.Errorf("alloc %d bytes with %d free: %w", n, len(a.buf)-a.used, ErrArenaExhausted)
	}
	slot := types.Slot(a.used)
	a.used += n
	return slot, nil
}

// Bytes returns the n-byte region at slot. Both sides read and write
// through the returned view; it stays valid until Reset.
func (a *Arena) Bytes(slot types.Slot, n int) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	end := int(slot) + n
	if n < 0 || end > a.used {
		return nil, fmt.Errorf("slot %d+%d out of bounds (%d bytes in use)", slot, n, a.used)
	}
	return a.buf[slot:end], nil
}

// Used returns the number of allocated bytes.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Cap returns the arena capacity.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Truncate returns the arena to an earlier allocation watermark, as
// previously observed through Used. Slot handles and views taken above
// the watermark become invalid; allocations below it are untouched. A
// watermark outside the allocated range is ignored.
func (a *Arena) Truncate(mark int) {
	a.mu.Lock()
	if mark >= 0 && mark < a.used {
		a.used = mark
	}
	a.mu.Unlock()
}

// Reset discards all allocations. Every outstanding slot handle and view
// becomes invalid.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.used = 0
	a.mu.Unlock()
}
