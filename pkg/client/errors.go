package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotConnected      = errors.New("not connected")
	ErrNoChannel         = errors.New("no active channel")
	ErrStaleResponse     = errors.New("response is for a channel that is no longer active")
	ErrEmptyMessage      = errors.New("message body is empty")
	ErrUnknownAttachment = errors.New("no staged attachment with that name")
	ErrLoadInFlight      = errors.New("a page load is already in flight")
	ErrUnknownPending    = errors.New("no unconfirmed emit with that id")
)

// StatusError is returned when the server answers a request with a non-2xx status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: server returned %d %s", e.Op, e.Code, http.StatusText(e.Code))
}
