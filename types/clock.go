package types

// NowInitRequest asks the host for the saved timeline cursor so the kernel
// can resume where the previous invocation left off.
type NowInitRequest struct{}

// NowInitReply carries the timeline cursor in monotonic clock units.
type NowInitReply struct {
	Now uint64
}

// NowSave hands the timeline cursor back to the host at the end of a run.
type NowSave struct {
	Now uint64
}

// RtioInitRequest asks the host to reset the real-time I/O core. It takes
// no reply; RPC and DRTIO traffic is meaningful only after initialization.
type RtioInitRequest struct{}

// Category implements Message.
func (NowInitRequest) Category() Category { return CategoryClock }

// Category implements Message.
func (NowInitReply) Category() Category { return CategoryClock }

// Category implements Message.
func (NowSave) Category() Category { return CategoryClock }

// Category implements Message.
func (RtioInitRequest) Category() Category { return CategoryClock }
