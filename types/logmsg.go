package types

// Log relays pre-formatted text to the host's log sink. The relay forwards
// it unmodified; a leading "LEVEL:" prefix, as emitted by the kernel log
// macros, only routes severity.
type Log struct {
	Text string
}

// LogSlice relays raw pre-rendered text. Text aliases the receive buffer;
// sinks that retain it must copy.
type LogSlice struct {
	Text []byte
}

// Category implements Message.
func (Log) Category() Category { return CategoryLog }

// Category implements Message.
func (LogSlice) Category() Category { return CategoryLog }
