package types

// RunFinished signals normal kernel completion.
type RunFinished struct{}

// RunException signals kernel termination by an uncaught exception. The
// transition is authoritative: no further lifecycle messages are accepted
// until the exchange is reset for the next invocation.
type RunException struct {
	Exception Exception
	// Backtrace is a sequence of opaque address words from the kernel's
	// call stack, resolved to source positions offline.
	Backtrace []uint64
}

// RunAborted signals an external forced termination (e.g. watchdog
// expiry). It takes precedence over any pending RunException en route.
type RunAborted struct{}

// Category implements Message.
func (RunFinished) Category() Category { return CategoryRun }

// Category implements Message.
func (RunException) Category() Category { return CategoryRun }

// Category implements Message.
func (RunAborted) Category() Category { return CategoryRun }
