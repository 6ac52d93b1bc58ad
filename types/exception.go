package types

import (
	"fmt"
	"strings"
)

// ExceptionParams is the number of parameter slots carried by an Exception.
const ExceptionParams = 3

// Exception describes a failure raised on one side of the boundary and
// reconstructed on the other. Text fields are decoded into owned strings,
// so an Exception survives its originating exchange; the message text may
// contain {0}..{2} placeholders substituted from Param by Render.
type Exception struct {
	// Name is the exception type label (e.g. "RTIOUnderflow").
	Name string
	// File, Line and Column locate the raising source position.
	File   string
	Line   uint32
	Column uint32
	// Function is the enclosing function name.
	Function string
	// Message is the failure text, possibly with {n} placeholders.
	Message string
	// Param holds the substitution values for the message placeholders.
	Param [ExceptionParams]int64
}

// Render returns the message with {0}..{2} placeholders substituted from
// Param. Unknown placeholders are left verbatim.
func (e *Exception) Render() string {
	msg := e.Message
	for i, p := range e.Param {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i), fmt.Sprintf("%d", p))
	}
	return msg
}

// Error implements the error interface so an Exception can terminate a
// computation through ordinary error returns.
func (e *Exception) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (%s:%d:%d, in %s)",
			e.Name, e.Render(), e.File, e.Line, e.Column, e.Function)
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Render())
}
