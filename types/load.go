package types

import "fmt"

// Kernel address-space layout. The loader places the program image at
// these fixed addresses; they are part of the load contract, not of the
// wire format.
const (
	KernelExecAddress    = 0x40800000
	KernelPayloadAddress = 0x40840000
	KernelLastAddress    = 0x4fffffff
	KSupportHeaderSize   = 0x80
)

// LinkErrorKind classifies loader failures carried by LoadReply.
type LinkErrorKind uint8

const (
	// LinkErrorParse indicates a malformed or unsupported program image.
	LinkErrorParse LinkErrorKind = iota
	// LinkErrorLookup indicates an unresolved symbol reference.
	LinkErrorLookup
)

// String returns the kind label.
func (k LinkErrorKind) String() string {
	switch k {
	case LinkErrorParse:
		return "parse"
	case LinkErrorLookup:
		return "lookup"
	default:
		return "unknown"
	}
}

// LinkError is the structured loader failure value. It is a domain error:
// the load exchange itself completed, the program was rejected.
type LinkError struct {
	Kind LinkErrorKind
	// Detail names the offending symbol for lookup errors, or describes
	// the parse failure.
	Detail string
}

// Error implements the error interface.
func (e *LinkError) Error() string {
	return fmt.Sprintf("link error (%s): %s", e.Kind, e.Detail)
}

// LoadRequest asks the loader to link and install a program image.
// Library aliases the receive buffer; the loader must consume or copy it
// within the exchange.
type LoadRequest struct {
	Library []byte
}

// LoadReply reports the load result. Err is nil on success.
type LoadReply struct {
	Err *LinkError
}

// Category implements Message.
func (LoadRequest) Category() Category { return CategoryLoad }

// Category implements Message.
func (LoadReply) Category() Category { return CategoryLoad }
