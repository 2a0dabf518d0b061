package aspect

import "github.com/pkg/errors"

var (
	ErrFrozen              = errors.New("aspect: proxy configuration is frozen")
	ErrNoTarget            = errors.New("aspect: no target")
	ErrNotInterface        = errors.New("aspect: type is not an interface")
	ErrNotImplemented      = errors.New("aspect: interface not implemented")
	ErrUnknownAdvice       = errors.New("aspect: unknown advice kind")
	ErrInvalidIntroduction = errors.New("aspect: invalid introduction")
	ErrMethodNotExposed    = errors.New("aspect: method not exposed by proxy")
	ErrArgumentCount       = errors.New("aspect: wrong number of arguments")
	ErrArgumentType        = errors.New("aspect: argument type mismatch")
)
