package repository

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrAlreadyExists is returned when appending a row whose ID is taken.
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrBadHeader is returned when a table's header lacks required columns.
	ErrBadHeader = errors.New("table header missing required columns")
)

// RowError describes a single row that could not be decoded.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// MalformedRowsError is returned alongside the rows that did decode.
// It is not fatal: callers should surface it as a warning.
type MalformedRowsError struct {
	Table string
	Rows  []RowError
}

func (e *MalformedRowsError) Error() string {
	parts := make([]string, 0, len(e.Rows))
	for _, r := range e.Rows {
		parts = append(parts, r.Error())
	}
	return fmt.Sprintf("%s: %d malformed row(s) skipped (%s)", e.Table, len(e.Rows), strings.Join(parts, "; "))
}

// SplitMalformed separates a non-fatal malformed-rows error from a real failure.
func SplitMalformed(err error) (*MalformedRowsError, error) {
	if err == nil {
		return nil, nil
	}
	var mre *MalformedRowsError
	if errors.As(err, &mre) {
		return mre, nil
	}
	return nil, err
}
