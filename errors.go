package observer

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidEventTarget signals that a registration target is neither
	// an event Type nor a live Event instance.
	ErrInvalidEventTarget = errors.New("target is not an event type or event instance")

	// ErrNilObserver signals an attempt to bind to a nil peer.
	ErrNilObserver = errors.New("observer is nil")

	// ErrNilListener signals an attempt to register a nil callback.
	ErrNilListener = errors.New("listener is nil")
)

// ErrRegistration reports a failed listener registration together with the
// target it was attempted on.
type ErrRegistration struct {
	err    error
	target any
}

func (e ErrRegistration) Error() string {
	return fmt.Sprintf("Cannot register listener for %v: %s", e.target, e.err)
}

func (e ErrRegistration) Unwrap() error { return e.err }

func wrapErrRegistration(err error, target any) error {
	if err == nil {
		return nil
	}
	return &ErrRegistration{
		err:    err,
		target: target,
	}
}
