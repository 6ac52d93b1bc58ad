// Package types defines the closed kernel/host message vocabulary.
//
// The vocabulary is fixed at compile time: every message exchanged over the
// session mailbox is one of the variants defined in this package, grouped one
// file per concern (load, clock, run, watchdog, drtio, rpc, cache, i2c, log).
// Wire tags and the codec live in the wire package; this package is a leaf
// with no internal dependencies.
package types

// Category groups the message vocabulary by concern. The wire codec
// dispatches decoding by category, so no single component needs knowledge
// of every unrelated subsystem.
type Category uint8

// Category constants, one per concern.
const (
	CategoryLoad Category = iota
	CategoryClock
	CategoryRun
	CategoryWatchdog
	CategoryDrtio
	CategoryRPC
	CategoryCache
	CategoryI2C
	CategoryLog
)

// String returns the category name used in traces and logs.
func (c Category) String() string {
	switch c {
	case CategoryLoad:
		return "load"
	case CategoryClock:
		return "clock"
	case CategoryRun:
		return "run"
	case CategoryWatchdog:
		return "watchdog"
	case CategoryDrtio:
		return "drtio"
	case CategoryRPC:
		return "rpc"
	case CategoryCache:
		return "cache"
	case CategoryI2C:
		return "i2c"
	case CategoryLog:
		return "log"
	default:
		return "unknown"
	}
}

// Message is implemented by every protocol message variant.
//
// Decoded messages may carry byte-slice fields that alias the receive
// buffer of the exchange they were decoded from. Such views are valid only
// until the next receive on the same endpoint; callers that retain a
// message past its exchange must copy those fields first.
type Message interface {
	Category() Category
}
