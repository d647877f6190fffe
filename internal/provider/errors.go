package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an adapter call did not produce data.
type ErrorKind int

const (
	KindUnavailable ErrorKind = iota // network error or timeout
	KindStatus                       // non-2xx or upstream API error
	KindMalformed                    // response missing or mangling a required field
	KindEmpty                        // call succeeded but returned nothing usable
	KindUnsupported                  // operation not offered by this provider
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindStatus:
		return "status"
	case KindMalformed:
		return "malformed"
	case KindEmpty:
		return "empty"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the failure half of every adapter result.
type Error struct {
	Provider string
	Op       string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %s", e.Provider, e.Op, e.Kind)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(providerName, op string, kind ErrorKind, err error) *Error {
	return &Error{Provider: providerName, Op: op, Kind: kind, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from an adapter
// count as KindUnavailable.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnavailable
}
