package types

import (
	"errors"
	"fmt"
)

// ValidationError reports a local precondition failure detected before any
// gateway call is made. It is surfaced to the user immediately and never
// retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// RemoteError wraps a failed gateway call. The cache is left untouched when
// one is returned; the caller may retry manually but no automatic retry is
// performed.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s failed: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// NewRemoteError wraps err as a RemoteError for the named gateway operation.
func NewRemoteError(op string, err error) *RemoteError {
	return &RemoteError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}

// Subscriber lifecycle errors.
var (
	// ErrFeedActive is returned when a second realtime feed is started
	// without tearing down the first.
	ErrFeedActive = errors.New("a realtime feed is already active")
	// ErrNoFeed is returned when stopping a subscriber that has no feed.
	ErrNoFeed = errors.New("no realtime feed is active")
)
