package pool

import (
	"fmt"

	"github.com/pkg/errors"
)

type Op string

const (
	OpBorrow Op = "borrow"
	OpReturn Op = "return"
	OpClose  Op = "close"
)

// Error kinds.
var (
	ErrPoolClosed    = errors.New("pool closed")
	ErrPoolExhausted = errors.New("pool exhausted")
	ErrFactory       = errors.New("object factory failed")
	ErrInvalidConfig = errors.New("invalid pool configuration")
)

// Error is a pool failure. Kind is one of the Err* kinds and Err the
// underlying cause, if any; errors.Is matches both.
type Error struct {
	Op   Op
	Kind error
	Err  error
}

func newError(op Op, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("pool %s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("pool %s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
