// Package errs provides the typed error taxonomy shared by every protocol
// layer, generalizing the teacher's pkg/protocol.Error{Culprits, Err}
// pattern so a failed MAC or verification check can be attributed to the
// party whose broadcast caused it.
package errs

import (
	"errors"
	"fmt"

	"github.com/luxfi/fliop/pkg/party"
)

// Kind classifies the failure, per the error taxonomy.
type Kind int

const (
	// ShapeMismatch: ring element of wrong length, vector length not a
	// power of two, or inner-product operands disagreeing in length.
	ShapeMismatch Kind = iota
	// BadFormat: base64 or JSON decoding failure, or a reassembled
	// fragment that does not parse as JSON.
	BadFormat
	// MacCheckFailed: sigma was non-zero in A.open_and_verify.
	MacCheckFailed
	// VerificationFailed: the final verifier equation did not hold.
	VerificationFailed
	// NetworkError: a socket error other than a transient would-block.
	NetworkError
	// Timeout: a receive loop exceeded an implementation deadline.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case ShapeMismatch:
		return "ShapeMismatch"
	case BadFormat:
		return "BadFormat"
	case MacCheckFailed:
		return "MacCheckFailed"
	case VerificationFailed:
		return "VerificationFailed"
	case NetworkError:
		return "NetworkError"
	case Timeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error wraps a Kind with the parties responsible, if any, and the
// underlying cause. Culprits is empty for errors with no single
// attributable sender (e.g. a local shape check).
type Error struct {
	Kind     Kind
	Culprits []party.ID
	Err      error
}

// New creates an Error with no culprits.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Newf creates an Error with no culprits from a format string.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap annotates err with a Kind and optional culprits.
func Wrap(kind Kind, err error, culprits ...party.ID) *Error {
	return &Error{Kind: kind, Culprits: culprits, Err: err}
}

func (e *Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s (culprits %v): %s", e.Kind, e.Culprits, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same Kind, so
// errors.Is(err, &errs.Error{Kind: errs.MacCheckFailed}) matches any
// *Error of that Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
