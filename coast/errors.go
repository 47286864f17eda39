package coast

import "fmt"

// Kind classifies why a coast operation failed.
type Kind int

const (
	// MalformedGeometry: a segment crossing the rectangle boundary could
	// not be classified against any side, or a Rectangle's bounds are
	// invalid.
	MalformedGeometry Kind = iota
	// IncompleteCoastline: the entering and exiting intersection counts
	// do not match, meaning the dataset does not fully cover the window.
	IncompleteCoastline
	// InvariantViolation: the closure walk reached a state the state
	// machine does not allow (e.g. an entering event while still
	// looking for an exit).
	InvariantViolation
	// AssemblerInconsistency: the way assembler was asked to continue a
	// chain through a shared endpoint that does not actually match.
	AssemblerInconsistency
)

func (k Kind) String() string {
	switch k {
	case MalformedGeometry:
		return "MalformedGeometry"
	case IncompleteCoastline:
		return "IncompleteCoastline"
	case InvariantViolation:
		return "InvariantViolation"
	case AssemblerInconsistency:
		return "AssemblerInconsistency"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every coast operation. It carries
// an optional partial result so a caller can dump the offending geometry
// for diagnosis; a partial result must never be rendered as final output.
type Error struct {
	Kind Kind
	Msg  string

	// Partial, if non-nil, holds whatever closed chains and open
	// sub-chains had been produced before the failure. ClipAll attaches
	// one to its IncompleteCoastline error; other errors leave it nil.
	Partial *PartialResult
}

// PartialResult is diagnostic-only state attached to an Error.
type PartialResult struct {
	ClosedChains  []Chain
	OpenSubChains []OpenSubChain
}

func (e *Error) Error() string {
	return fmt.Sprintf("coast: %s: %s", e.Kind, e.Msg)
}

// Is supports errors.Is(err, &coast.Error{Kind: coast.MalformedGeometry})
// style checks: it reports true when the target is a *Error of the same
// Kind, whatever its Msg.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
