package hxnav

import (
	"context"
	"fmt"
)

// Result is the outcome of invoking a user handler. The dispatcher inspects
// it to decide which lifecycle event to emit.
type Result struct {
	err      error
	panicked bool
}

// OK reports whether the handler succeeded.
func (r Result) OK() bool {
	return r.err == nil
}

// Err returns the handler error, wrapped in *HandlerError.
func (r Result) Err() error {
	return r.err
}

// Panicked reports whether the handler panicked rather than returning an error.
func (r Result) Panicked() bool {
	return r.panicked
}

// invoke runs fn and converts both returned errors and panics into a Result.
func invoke(ctx context.Context, fn HandlerFunc, call Call, phase string) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{
				err: &HandlerError{
					State: call.State,
					Phase: phase,
					Err:   fmt.Errorf("%w: %v", ErrHandlerPanic, rec),
				},
				panicked: true,
			}
		}
	}()

	if err := fn(ctx, call); err != nil {
		return Result{err: &HandlerError{State: call.State, Phase: phase, Err: err}}
	}
	return Result{}
}
