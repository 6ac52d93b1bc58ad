// Package rpc marshals calls and results between the kernel and the host.
//
// The kernel side drives a Bridge; the host side answers through a
// Registry. Arguments and results never travel inline: each value is
// pre-encoded into the shared exchange arena and referenced by its slot
// handle, so the messages themselves stay bounded.
package rpc

import (
	"fmt"
	"sync"

	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

// DefaultMaxResultSize bounds the arena region a synchronous call
// reserves for its result before the reply's actual size is known.
const DefaultMaxResultSize = 4096

// State is the bridge's per-call progress.
type State int

const (
	// StateIdle means no call is in flight.
	StateIdle State = iota
	// StateSent means RpcSend has gone out but the result slot has not
	// been requested yet.
	StateSent
	// StateAwaitingResult means the bridge has asked for the result and
	// is blocked on the reply.
	StateAwaitingResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSent:
		return "sent"
	case StateAwaitingResult:
		return "awaiting-result"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ProtocolViolationError reports a second call issued while one is still
// unresolved. There is no call pipelining: exactly one call may be in
// flight per channel.
type ProtocolViolationError struct {
	State State
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("rpc: call issued while bridge is %v", e.State)
}

// Bridge is the kernel-side call state machine over one exchange
// endpoint. Exactly one call may be in flight: a call issued while
// another is unresolved fails with ProtocolViolationError instead of
// interleaving.
type Bridge struct {
	ep            *mailbox.Endpoint
	maxResultSize int

	mu    sync.Mutex
	state State
}

// NewBridge creates a bridge over an endpoint. maxResultSize <= 0 selects
// DefaultMaxResultSize.
func NewBridge(ep *mailbox.Endpoint, maxResultSize int) *Bridge {
	if maxResultSize <= 0 {
		maxResultSize = DefaultMaxResultSize
	}
	return &Bridge{ep: ep, maxResultSize: maxResultSize}
}

// State returns the bridge's current call state.
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// begin claims the bridge for a new call.
func (b *Bridge) begin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateIdle {
		return &ProtocolViolationError{State: b.state}
	}
	b.state = StateSent
	return nil
}

func (b *Bridge) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// encodeArgs encodes each argument into the arena and returns the slot
// handles, in call order.
func (b *Bridge) encodeArgs(sig Signature, args []any) ([]types.Slot, error) {
	if len(args) != len(sig.Args) {
		return nil, fmt.Errorf("rpc: %d arguments for %d-argument signature", len(args), len(sig.Args))
	}
	arena := b.ep.Arena()
	slots := make([]types.Slot, len(args))
	for i, arg := range args {
		encoded, err := appendValue(nil, sig.Args[i], arg)
		if err != nil {
			return nil, err
		}
		slot, err := arena.Alloc(len(encoded))
		if err != nil {
			return nil, err
		}
		region, err := arena.Bytes(slot, len(encoded))
		if err != nil {
			return nil, err
		}
		copy(region, encoded)
		slots[i] = slot
	}
	return slots, nil
}

// Post issues a fire-and-forget call. No reply is ever produced and the
// bridge returns to idle as soon as the send completes; awaiting an async
// call's result is a caller error the API does not express.
//
// Unlike Call, Post cannot reclaim its argument regions: with no reply
// there is no point at which the host is known to be done reading them,
// so they stay allocated until the next Arena.Reset.
func (b *Bridge) Post(service uint32, tag string, args ...any) error {
	sig, err := ParseSignature([]byte(tag))
	if err != nil {
		return err
	}
	if err := b.begin(); err != nil {
		return err
	}
	defer b.setState(StateIdle)

	slots, err := b.encodeArgs(sig, args)
	if err != nil {
		return err
	}
	return b.ep.Send(types.RpcSend{
		Async:   true,
		Service: service,
		Tag:     []byte(tag),
		Args:    slots,
	})
}

// Call issues a synchronous call and blocks until its result arrives. A
// reply carrying an exception is returned as *types.Exception: it is the
// logical termination of the calling computation, not a channel fault.
//
// The call's argument and result regions live only until the reply: the
// arena is truncated back to its pre-call watermark when the bridge
// returns to idle, so sequential calls reuse the same space.
func (b *Bridge) Call(service uint32, tag string, args ...any) (any, error) {
	sig, err := ParseSignature([]byte(tag))
	if err != nil {
		return nil, err
	}
	if err := b.begin(); err != nil {
		return nil, err
	}
	defer b.setState(StateIdle)

	// Taken after begin so no concurrent call moves it underneath us.
	// readValue copies out of the arena, so truncating on return is safe.
	mark := b.ep.Arena().Used()
	defer b.ep.Arena().Truncate(mark)

	slots, err := b.encodeArgs(sig, args)
	if err != nil {
		return nil, err
	}
	err = b.ep.Send(types.RpcSend{
		Service: service,
		Tag:     []byte(tag),
		Args:    slots,
	})
	if err != nil {
		return nil, err
	}

	arena := b.ep.Arena()
	dest, err := arena.Alloc(b.maxResultSize)
	if err != nil {
		return nil, err
	}
	if err := b.ep.Send(types.RpcRecvRequest{Dest: dest}); err != nil {
		return nil, err
	}
	b.setState(StateAwaitingResult)

	m, err := b.ep.Recv()
	if err != nil {
		return nil, err
	}
	reply, ok := m.(types.RpcRecvReply)
	if !ok {
		return nil, fmt.Errorf("rpc: expected reply, got %T", m)
	}
	if reply.Exc != nil {
		return nil, reply.Exc
	}
	if int(reply.Size) > b.maxResultSize {
		return nil, fmt.Errorf("rpc: result size %d exceeds reserved %d bytes", reply.Size, b.maxResultSize)
	}
	region, err := arena.Bytes(dest, int(reply.Size))
	if err != nil {
		return nil, err
	}
	r := wire.NewReader(region)
	result, err := readValue(r, sig.Ret)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("rpc: %d trailing bytes after result", r.Len())
	}
	return result, nil
}
