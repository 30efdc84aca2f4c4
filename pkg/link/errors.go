package link

import (
	"errors"
	"fmt"
	"io/fs"
)

// Link errors.
var (
	ErrNotPaired            = errors.New("endpoint not paired")
	ErrChannelOpen          = errors.New("channel open failed")
	ErrAllAttemptsExhausted = errors.New("all connection attempts exhausted")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrLinkLost             = errors.New("link lost")
	ErrHandleClosed         = errors.New("link handle closed")
	ErrUnsupported          = errors.New("strategy not supported on this platform")
	ErrNoStrategies         = errors.New("no strategies for endpoint")
)

// AttemptError records which attempt and strategy failed.
// It matches ErrChannelOpen as well as the underlying cause.
type AttemptError struct {
	Attempt  int
	Strategy string
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("attempt %d (%s): %v", e.Attempt, e.Strategy, e.Err)
}

// Unwrap returns ErrChannelOpen and the cause.
func (e *AttemptError) Unwrap() []error {
	return []error{ErrChannelOpen, e.Err}
}

// IsPermission reports whether err means the caller lacks authorization to
// open the transport. EACCES and EPERM both match fs.ErrPermission.
func IsPermission(err error) bool {
	return errors.Is(err, ErrPermissionDenied) || errors.Is(err, fs.ErrPermission)
}
