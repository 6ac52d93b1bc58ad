// Package mailbox implements the half-duplex exchange channel between the
// kernel and host execution contexts.
//
// Each frame is a u32 big-endian length prefix followed by one
// wire-encoded message. An endpoint's transport is rendezvous-style: a
// send does not complete until the peer consumes the frame, so at most one
// message occupies the channel per direction, and a sender reuses its
// buffer only after consumption.
//
// The receive buffer is the lease backing decoded views: byte-slice fields
// of a received message alias it and are valid only until the next Recv on
// the same endpoint.
package mailbox

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

// lengthPrefixSize is the size of the frame length prefix in bytes.
const lengthPrefixSize = 4

// MaxFrameSize bounds a frame, length prefix included.
const MaxFrameSize = lengthPrefixSize + wire.MaxMessageSize

// Endpoint is one side of the exchange channel.
type Endpoint struct {
	r     io.Reader
	w     io.Writer
	arena *Arena

	sendBuf []byte
	recvBuf []byte
}

// New creates an endpoint over the given transport halves, sharing the
// given exchange arena with the peer. A nil arena gets a private arena of
// DefaultArenaSize (useful for endpoints that never carry RPC traffic).
func New(r io.Reader, w io.Writer, arena *Arena) *Endpoint {
	if arena == nil {
		arena = NewArena(DefaultArenaSize)
	}
	return &Endpoint{r: r, w: w, arena: arena}
}

// Pipe creates a connected kernel/host endpoint pair sharing one exchange
// arena, backed by in-memory rendezvous pipes. Useful for tests and for
// hosting a kernel context in-process.
func Pipe(arenaSize int) (kernel, host *Endpoint) {
	arena := NewArena(arenaSize)
	kr, hw := io.Pipe()
	hr, kw := io.Pipe()
	return New(kr, kw, arena), New(hr, hw, arena)
}

// Arena returns the shared exchange arena.
func (e *Endpoint) Arena() *Arena {
	return e.arena
}

// Send encodes and transmits one message. Blocks until the peer consumes
// the previous frame in this direction.
func (e *Endpoint) Send(m types.Message) error {
	buf := e.sendBuf[:0]
	if cap(buf) < lengthPrefixSize {
		buf = make([]byte, 0, 256)
	}
	buf = buf[:lengthPrefixSize]

	buf, err := wire.Append(buf, m)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(buf[:lengthPrefixSize], uint32(len(buf)-lengthPrefixSize))
	e.sendBuf = buf

	if _, err := e.w.Write(buf); err != nil {
		return fmt.Errorf("mailbox send: %w", err)
	}
	return nil
}

// Recv reads and decodes the next message. Byte-slice fields of the
// returned message alias the endpoint's receive buffer and are valid only
// until the next Recv; callers needing persistence must copy.
//
// Returns io.EOF when the peer closed the channel cleanly between frames.
func (e *Endpoint) Recv() (types.Message, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(e.r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &wire.Error{Kind: wire.KindTruncated, Msg: "mailbox: partial length prefix", Err: err}
	}

	size := binary.BigEndian.Uint32(prefix[:])
	if size > wire.MaxMessageSize {
		return nil, &wire.Error{
			Kind: wire.KindOversize,
			Msg:  fmt.Sprintf("mailbox: frame of %d bytes exceeds maximum %d", size, wire.MaxMessageSize),
		}
	}

	if cap(e.recvBuf) < int(size) {
		e.recvBuf = make([]byte, size)
	}
	e.recvBuf = e.recvBuf[:size]
	if _, err := io.ReadFull(e.r, e.recvBuf); err != nil {
		return nil, &wire.Error{Kind: wire.KindTruncated, Msg: "mailbox: partial frame payload", Err: err}
	}

	return wire.Decode(e.recvBuf)
}

// Close closes whichever transport halves support closing.
func (e *Endpoint) Close() error {
	var firstErr error
	if c, ok := e.w.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c, ok := e.r.(io.Closer); ok {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
