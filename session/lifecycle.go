// Package session supervises one kernel invocation from the host side:
// the execution lifecycle, the watchdog table, and the dispatch loop that
// routes decoded messages to their collaborators.
package session

import (
	"fmt"

	"github.com/orogen-io/sideband/types"
)

// Phase is the lifecycle state of the supervised kernel run.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRunning
	PhaseFinished
	PhaseExceptionRaised
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	case PhaseExceptionRaised:
		return "exception-raised"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the phase ends the run.
func (p Phase) Terminal() bool {
	return p == PhaseFinished || p == PhaseExceptionRaised || p == PhaseAborted
}

// Lifecycle tracks one run through
// NotStarted → Running → {Finished, ExceptionRaised, Aborted}.
// The terminal phases are final for the invocation: only Reset, issued
// between invocations, leaves them. Abort is the one exception to
// finality — an external forced termination overrides a pending
// exception that is still in flight.
type Lifecycle struct {
	phase     Phase
	exception *types.Exception
	backtrace []uint64
}

// Phase returns the current phase.
func (l *Lifecycle) Phase() Phase {
	return l.phase
}

// Exception returns the terminating exception and backtrace, set only in
// PhaseExceptionRaised.
func (l *Lifecycle) Exception() (*types.Exception, []uint64) {
	return l.exception, l.backtrace
}

// Start enters Running after a successful load.
func (l *Lifecycle) Start() error {
	if l.phase != PhaseNotStarted {
		return fmt.Errorf("session: start while %v", l.phase)
	}
	l.phase = PhaseRunning
	return nil
}

// Finish records a normal completion.
func (l *Lifecycle) Finish() error {
	if l.phase != PhaseRunning {
		return fmt.Errorf("session: finish while %v", l.phase)
	}
	l.phase = PhaseFinished
	return nil
}

// RaiseException records a terminating exception with its backtrace.
func (l *Lifecycle) RaiseException(exc types.Exception, backtrace []uint64) error {
	if l.phase != PhaseRunning {
		return fmt.Errorf("session: exception while %v", l.phase)
	}
	l.phase = PhaseExceptionRaised
	l.exception = &exc
	l.backtrace = backtrace
	return nil
}

// Abort records a forced external termination. It overrides an exception
// already raised: the abort is what the operator sees.
func (l *Lifecycle) Abort() error {
	switch l.phase {
	case PhaseRunning:
		l.phase = PhaseAborted
		return nil
	case PhaseExceptionRaised:
		l.phase = PhaseAborted
		l.exception = nil
		l.backtrace = nil
		return nil
	default:
		return fmt.Errorf("session: abort while %v", l.phase)
	}
}

// Reset prepares the lifecycle for the next invocation.
func (l *Lifecycle) Reset() {
	*l = Lifecycle{}
}
