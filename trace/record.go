// Package trace records the traffic of one kernel/host session as a
// journal: a stream of length-prefixed msgpack records, one per message.
// Journals are written live during the session and inspected or archived
// afterwards.
package trace

import (
	"time"

	"github.com/orogen-io/sideband/types"
	"github.com/orogen-io/sideband/wire"
)

// Direction labels which side produced the message.
type Direction string

const (
	// DirKernel marks traffic the kernel sent to the host.
	DirKernel Direction = "kernel"
	// DirHost marks traffic the host sent to the kernel.
	DirHost Direction = "host"
)

// Record is one journaled message. Raw holds the message's full wire
// encoding (tag plus payload), so a journal replays without loss.
type Record struct {
	Seq       uint64    `msgpack:"seq"`
	Ts        time.Time `msgpack:"ts"`
	Direction Direction `msgpack:"direction"`
	Tag       uint8     `msgpack:"tag"`
	Label     string    `msgpack:"label"`
	Category  string    `msgpack:"category"`
	Raw       []byte    `msgpack:"raw"`
}

// NewRecord builds a record for one message.
func NewRecord(seq uint64, ts time.Time, dir Direction, m types.Message) (Record, error) {
	raw, err := wire.Encode(m)
	if err != nil {
		return Record{}, err
	}
	tag := wire.Tag(raw[0])
	return Record{
		Seq:       seq,
		Ts:        ts,
		Direction: dir,
		Tag:       uint8(tag),
		Label:     tag.String(),
		Category:  m.Category().String(),
		Raw:       raw,
	}, nil
}

// Message decodes the journaled message back from its wire form.
func (r Record) Message() (types.Message, error) {
	return wire.Decode(r.Raw)
}
