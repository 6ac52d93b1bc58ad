package types

// Slot is a stable offset handle into the exchange arena. RPC arguments
// and results are pre-encoded into the arena and referenced by Slot, so no
// raw address ever crosses the boundary. A Slot is valid only until the
// arena is reset for the next exchange.
type Slot uint32

// RpcSend initiates a remote procedure call on the host. Tag describes
// the argument and return types; Args references one pre-encoded argument
// per slot, in call order. Tag aliases the receive buffer on decode.
//
// For async calls no reply is ever produced and Args must not be retained
// past the exchange. For sync calls the caller follows up with
// RpcRecvRequest once it is ready to receive the result.
type RpcSend struct {
	Async   bool
	Service uint32
	Tag     []byte
	Args    []Slot
}

// RpcRecvRequest signals readiness to receive the pending call's result,
// carrying the arena slot the result value should be written to.
type RpcRecvRequest struct {
	Dest Slot
}

// RpcRecvReply completes a synchronous call. Exactly one of the two
// outcomes is present: on success Size is the byte length of the result
// value written at the pre-agreed slot; on failure Exc carries the
// exception that logically terminates the originating computation.
type RpcRecvReply struct {
	Size uint32
	Exc  *Exception
}

// Category implements Message.
func (RpcSend) Category() Category { return CategoryRPC }

// Category implements Message.
func (RpcRecvRequest) Category() Category { return CategoryRPC }

// Category implements Message.
func (RpcRecvReply) Category() Category { return CategoryRPC }
