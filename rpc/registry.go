package rpc

import (
	"fmt"

	"github.com/orogen-io/sideband/mailbox"
	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

// Handler executes one host-side service. Returning a non-nil exception
// propagates it to the caller as the call's outcome; it terminates the
// calling computation, not the exchange.
type Handler func(args []any) (any, *types.Exception)

// Result is one resolved call, held by the host until the caller asks
// where to deliver it.
type Result struct {
	Ret   Type
	Value any
	Exc   *types.Exception
}

// Registry maps service ids to host-side handlers and resolves calls
// against the shared arena. The host's dispatch loop owns it; it is not
// safe for concurrent mutation while calls are being resolved.
type Registry struct {
	handlers map[uint32]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[uint32]Handler)}
}

// Register binds a handler to a service id, replacing any prior binding.
func (g *Registry) Register(service uint32, h Handler) {
	g.handlers[service] = h
}

// Invoke decodes the call's arguments from the arena and runs its
// handler. An unknown service or a result that does not match the tag's
// return type resolves to an exception, never an error: both terminate
// the calling computation while leaving the channel intact.
func (g *Registry) Invoke(arena *mailbox.Arena, send types.RpcSend) (*Result, error) {
	sig, err := ParseSignature(send.Tag)
	if err != nil {
		return nil, err
	}
	if len(send.Args) != len(sig.Args) {
		return nil, fmt.Errorf("rpc: %d argument slots for %d-argument signature", len(send.Args), len(sig.Args))
	}

	h, ok := g.handlers[send.Service]
	if !ok {
		return &Result{Ret: sig.Ret, Exc: unknownService(send.Service)}, nil
	}

	args := make([]any, len(send.Args))
	for i, slot := range send.Args {
		region, err := arena.Bytes(slot, arena.Used()-int(slot))
		if err != nil {
			return nil, err
		}
		v, err := readValue(wire.NewReader(region), sig.Args[i])
		if err != nil {
			return nil, fmt.Errorf("rpc service %d argument %d: %w", send.Service, i, err)
		}
		args[i] = v
	}

	value, exc := h(args)
	if exc != nil {
		return &Result{Ret: sig.Ret, Exc: exc}, nil
	}
	return &Result{Ret: sig.Ret, Value: value}, nil
}

// Deliver writes a resolved call's value into the arena at the caller's
// destination slot and builds the completing reply.
func Deliver(arena *mailbox.Arena, dest types.Slot, res *Result) (types.RpcRecvReply, error) {
	if res.Exc != nil {
		return types.RpcRecvReply{Exc: res.Exc}, nil
	}
	encoded, err := appendValue(nil, res.Ret, res.Value)
	if err != nil {
		return types.RpcRecvReply{}, err
	}
	region, err := arena.Bytes(dest, len(encoded))
	if err != nil {
		return types.RpcRecvReply{}, err
	}
	copy(region, encoded)
	return types.RpcRecvReply{Size: uint32(len(encoded))}, nil
}

func unknownService(service uint32) *types.Exception {
	return &types.Exception{
		Name:     "UnknownRPC",
		Function: "rpc dispatch",
		Message:  "no handler registered for service {0}",
		Param:    [3]int64{int64(service), 0, 0},
	}
}
