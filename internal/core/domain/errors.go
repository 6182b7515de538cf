package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure. Transport adapters map kinds to status
// codes; the domain never deals with HTTP.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidArgument
	KindOutOfStock
	KindInvalidState
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidArgument:
		return "invalid argument"
	case KindOutOfStock:
		return "out of stock"
	case KindInvalidState:
		return "invalid state"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches sentinels by kind, so errors.Is(err, ErrOutOfStock) holds for
// every out-of-stock error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrOutOfStock      = &Error{Kind: KindOutOfStock}
	ErrInvalidState    = &Error{Kind: KindInvalidState}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
)

func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return Errorf(KindNotFound, format, args...)
}

func InvalidArgumentf(format string, args ...any) error {
	return Errorf(KindInvalidArgument, format, args...)
}

func InvalidStatef(format string, args ...any) error {
	return Errorf(KindInvalidState, format, args...)
}

func Conflictf(format string, args ...any) error {
	return Errorf(KindConflict, format, args...)
}

// KindOf returns the kind of the first domain error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
