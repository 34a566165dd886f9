package hxnav

import (
	"errors"
	"fmt"

	"github.com/pthm/hxnav/lib/encoding"
)

// Sentinel errors for navigation operations.
var (
	// ErrConfiguration is the parent of every setup mistake. Configuration
	// errors are returned to the caller; they are never turned into events.
	ErrConfiguration = errors.New("hxnav: configuration error")

	ErrMissingTransition = errors.New("hxnav: state needs a transition handler")
	ErrRegexpURL         = errors.New("hxnav: state url must be a path template, not a regular expression")
	ErrInvalidParams     = errors.New("hxnav: url states only accept positional or named params")
	ErrDuplicateState    = errors.New("hxnav: duplicate state id")
	ErrUnknownMethod     = errors.New("hxnav: unknown method")
	ErrInvalidAttr       = errors.New("hxnav: invalid state attribute")

	ErrHandlerPanic     = errors.New("hxnav: handler panicked")
	ErrSignatureInvalid = errors.New("hxnav: link signature verification failed")
	ErrDecryptFailed    = errors.New("hxnav: link decryption failed")
	ErrInvalidToken     = errors.New("hxnav: invalid link token")
)

// ConfigurationError reports a programmer mistake in a state table or in
// the shape of a dispatch request.
type ConfigurationError struct {
	State  string
	Reason error
}

func (e *ConfigurationError) Error() string {
	if e.State == "" {
		return e.Reason.Error()
	}
	return fmt.Sprintf("%s (state %q)", e.Reason.Error(), e.State)
}

// Unwrap exposes both ErrConfiguration and the specific reason.
func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Reason}
}

func configError(state string, reason error) error {
	return &ConfigurationError{State: state, Reason: reason}
}

// Handler phases.
const (
	PhaseLoad       = "load"
	PhaseTransition = "transition"
)

// HandlerError wraps a failure returned (or panicked) by a user handler.
// It is delivered through loadError/transitionError events, never returned
// from dispatch.
type HandlerError struct {
	State string
	Phase string
	Err   error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("hxnav: %s handler for %q failed: %v", e.Phase, e.State, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// IsConfigurationError checks if err is a configuration error.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsHandlerError checks if err came from a user handler.
func IsHandlerError(err error) bool {
	var he *HandlerError
	return errors.As(err, &he)
}

// IsTokenError checks if err is a link token signature or decryption error.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrSignatureInvalid) || errors.Is(err, ErrDecryptFailed) || errors.Is(err, ErrInvalidToken)
}

// WrapTokenError maps encoding package errors onto hxnav sentinels.
func WrapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, encoding.ErrSignatureInvalid):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	case errors.Is(err, encoding.ErrDecryptFailed):
		return fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	case errors.Is(err, encoding.ErrInvalidFormat):
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	default:
		return err
	}
}
