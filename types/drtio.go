package types

// DrtioChannelStateRequest asks for the flow-control state of one
// distributed real-time output channel.
type DrtioChannelStateRequest struct {
	Channel uint32
}

// DrtioChannelStateReply carries the channel's free FIFO slot count and
// the timestamp of the last admitted event.
type DrtioChannelStateReply struct {
	FifoSpace     uint16
	LastTimestamp uint64
}

// DrtioResetChannelStateRequest reinitializes a channel's flow-control
// counters to their post-link-reset defaults. Must be issued after any
// detected link resynchronization.
type DrtioResetChannelStateRequest struct {
	Channel uint32
}

// DrtioGetFifoSpaceRequest asks the link to refresh the channel's FIFO
// space from hardware; the refreshed value is delivered via a subsequent
// DrtioChannelStateReply.
type DrtioGetFifoSpaceRequest struct {
	Channel uint32
}

// DrtioPacketCountRequest asks for the cumulative link packet counters.
type DrtioPacketCountRequest struct{}

// DrtioPacketCountReply carries cumulative, monotonically increasing
// packet counters. Consumers compute deltas between polls; a delta
// mismatch against the peer signals loss or duplication and must trigger
// a channel state reset.
type DrtioPacketCountReply struct {
	TxCount uint32
	RxCount uint32
}

// DrtioFifoSpaceReqCountRequest asks for the cumulative count of FIFO
// space requests issued on the link.
type DrtioFifoSpaceReqCountRequest struct{}

// DrtioFifoSpaceReqCountReply carries the cumulative FIFO space request
// counter.
type DrtioFifoSpaceReqCountReply struct {
	Count uint32
}

// Category implements Message.
func (DrtioChannelStateRequest) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioChannelStateReply) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioResetChannelStateRequest) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioGetFifoSpaceRequest) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioPacketCountRequest) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioPacketCountReply) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioFifoSpaceReqCountRequest) Category() Category { return CategoryDrtio }

// Category implements Message.
func (DrtioFifoSpaceReqCountReply) Category() Category { return CategoryDrtio }
