package resolver

import (
	"errors"
	"fmt"
)

// ErrorKind classifies resolution failures.
type ErrorKind int

const (
	// KindRequest means the request for a hop could not be built, usually a
	// malformed input URL.
	KindRequest ErrorKind = iota
	// KindTransport is a network failure during a hop.
	KindTransport
	// KindTimeout means a hop exceeded its deadline.
	KindTimeout
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is returned when a resolution attempt is aborted.
type Error struct {
	Kind ErrorKind
	URL  string
	Hop  int
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure at hop %d (%s): %v", e.Kind, e.Hop, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func kindOf(err error) (ErrorKind, bool) {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind, true
	}
	return 0, false
}

// IsTimeout reports whether err is a hop timeout.
func IsTimeout(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindTimeout
}

// IsTransport reports whether err is a network failure or a timeout.
func IsTransport(err error) bool {
	k, ok := kindOf(err)
	return ok && (k == KindTransport || k == KindTimeout)
}

// IsRequest reports whether err comes from an input URL that could not be
// turned into a request.
func IsRequest(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindRequest
}
