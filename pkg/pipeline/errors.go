// Package pipeline runs the staged worker pools that move messages
// between streams: consume, process with a per-message deadline, ack on
// success, reclaim entries abandoned by dead workers.
package pipeline

import "errors"

// ErrDuplicate marks a message whose effect already exists (redelivery of
// work that committed before the ack). The entry is acked silently.
var ErrDuplicate = errors.New("duplicate message")

// PermanentError wraps a failure that redelivery cannot fix: the entry is
// acked and counted instead of retried.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err is non-retryable.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
