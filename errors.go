package suftree

import "errors"
import "fmt"


//============================================= Error Kinds


// Kind distinguishes the categories of error the core surfaces to callers.
type Kind int

const (
	// KindInvalidArgument: null pattern, negative allocation size, malformed parameters.
	KindInvalidArgument Kind = iota
	// KindInvalidState: double build, write on read-only storage, compact offset out of range.
	KindInvalidState
	// KindDisposed: operation attempted on a disposed resource. A sub-kind of InvalidState.
	KindDisposed
	// KindOutOfRange: read/write crossing logical size, bounds overflow.
	KindOutOfRange
	// KindCorruption: bad magic, unsupported version, inconsistent header fields.
	KindCorruption
	// KindCompactOverflow: builder signal consumed by the Factory to trigger rebuild or promotion.
	KindCompactOverflow
	// KindIoFailure: file open/map/flush errors.
	KindIoFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidState:
		return "InvalidState"
	case KindDisposed:
		return "Disposed"
	case KindOutOfRange:
		return "OutOfRange"
	case KindCorruption:
		return "Corruption"
	case KindCompactOverflow:
		return "CompactOverflow"
	case KindIoFailure:
		return "IoFailure"
	default:
		return "Unknown"
	}
}

// Error is the error type returned by every exported entry point in this package.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Msg, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Cause }

// newErr builds an *Error with no wrapped cause.
func newErr(kind Kind, msg string) *Error {
	return &Error{ Kind: kind, Msg: msg }
}

// newErrf builds an *Error with a formatted message.
func newErrf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{ Kind: kind, Msg: fmt.Sprintf(format, args...) }
}

// wrapErr builds an *Error that wraps a lower-level cause.
func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{ Kind: kind, Msg: msg, Cause: cause }
}

// IsKind reports whether err is a *Error of the given kind, treating KindDisposed
// as a sub-kind of KindInvalidState when checked against KindInvalidState.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == kind { return true }
		if kind == KindInvalidState && e.Kind == KindDisposed { return true }
	}

	return false
}

var errDisposed = newErr(KindDisposed, "resource has been disposed")
