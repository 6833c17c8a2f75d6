package db

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection is returned when a database connection cannot be opened.
	ErrConnection = errors.New("dbscaffold: cannot connect to database")

	// ErrFilterSyntax is returned when a table filter cannot be parsed.
	ErrFilterSyntax = errors.New("dbscaffold: invalid table filter")
)

// ConnectionError wraps the driver error of a failed open or ping.
type ConnectionError struct {
	Provider Provider
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("dbscaffold: cannot connect to %s database: %v", e.Provider, e.Err)
}

// Is reports whether target is ErrConnection.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrConnection
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// FilterSyntaxError reports a table filter token that does not match
// [schema.]name. Pos is the byte offset of the offending character.
type FilterSyntaxError struct {
	Token  string
	Pos    int
	Reason string
}

func (e *FilterSyntaxError) Error() string {
	return fmt.Sprintf("dbscaffold: invalid table filter %q at offset %d: %s", e.Token, e.Pos, e.Reason)
}

// Is reports whether target is ErrFilterSyntax.
func (e *FilterSyntaxError) Is(target error) bool {
	return target == ErrFilterSyntax
}

// IsFilterSyntax reports whether err is, or wraps, a filter syntax error.
func IsFilterSyntax(err error) bool {
	var e *FilterSyntaxError
	return errors.As(err, &e)
}
