package db

import (
	"errors"
	"fmt"
)

// ErrNoDatabase indicates an operation that requires an active database
// handle while none is open.
var ErrNoDatabase = errors.New("no database open")

// RequestError marks a caller mistake: a bad parameter, an unknown table
// or an unknown column. The HTTP layer maps it to 400.
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

// NotFoundError marks a missing resource: the database file on open, or a
// cell addressed past the end of a table. The HTTP layer maps it to 404.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

func badRequestf(format string, args ...any) error {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error {
	return &NotFoundError{Msg: fmt.Sprintf(format, args...)}
}
