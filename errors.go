package alloc

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Sentinel causes. Compare against these with errors.Is; a returned
// *Error always unwraps to exactly one of them.
var (
	ErrInvalidConfig   = errors.New("alloc: invalid resource configuration")
	ErrOutOfSpace      = errors.New("alloc: out of space")
	ErrZeroSizeRequest = errors.New("alloc: zero-size request")
	ErrInvalidFree     = errors.New("alloc: invalid free")
)

// Error wraps one of the sentinel causes above with the resource tag and
// operation that produced it, plus whatever context pkg/errors captured
// when the cause was wrapped (region bounds, the address that failed to
// free, ...).
type Error struct {
	Tag   ResourceTag
	Op    string
	cause error
}

func newError(tag ResourceTag, op string, cause error, context string) *Error {
	wrapped := cause
	if context != "" {
		wrapped = pkgerrors.Wrap(cause, context)
	}
	return &Error{Tag: tag, Op: op, cause: wrapped}
}

// InvalidConfig builds an *Error wrapping ErrInvalidConfig.
func InvalidConfig(tag ResourceTag, op, context string) *Error {
	return newError(tag, op, ErrInvalidConfig, context)
}

// InvalidFree builds an *Error wrapping ErrInvalidFree.
func InvalidFree(tag ResourceTag, op, context string) *Error {
	return newError(tag, op, ErrInvalidFree, context)
}

func (e *Error) Error() string {
	return fmt.Sprintf("alloc: %s[%s]: %v", e.Tag, e.Op, e.cause)
}

// Unwrap lets errors.Is/errors.As see through to the sentinel cause.
func (e *Error) Unwrap() error { return e.cause }
