package wrap

import (
	"context"
	"errors"
)

// ctxError carries the LogCtx that was current when the error occurred,
// so log lines written far from the failure site still get the
// action/driver/company fields of the failed transition.
type ctxError struct {
	err    error
	logCtx LogCtx
}

func (e *ctxError) Error() string {
	return e.err.Error()
}

func (e *ctxError) Unwrap() error {
	return e.err
}

// Error attaches the context's LogCtx to err. Wrapping an already
// wrapped error refreshes the attached LogCtx instead of nesting.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	lc, _ := ctx.Value(LogCtxKey).(LogCtx)

	var e *ctxError
	if errors.As(err, &e) {
		e.logCtx = lc
		return err
	}
	return &ctxError{err: err, logCtx: lc}
}

// ErrorCtx restores the LogCtx captured inside err onto ctx; a plain
// error leaves ctx untouched.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *ctxError
	if errors.As(err, &e) && e != nil {
		return context.WithValue(ctx, LogCtxKey, e.logCtx)
	}
	return ctx
}
