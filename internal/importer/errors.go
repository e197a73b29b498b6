package importer

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("statement parse error")

// ParseError rejects a statement file. Nothing is written when it is
// returned.
type ParseError struct {
	File    string // may be empty when parsing an in-memory grid
	Section int    // header row of the offending section, -1 if none
	Err     error
}

func (e *ParseError) Error() string {
	var prefix string
	if e.File != "" {
		prefix = e.File + ": "
	}
	if e.Section >= 0 {
		return fmt.Sprintf("%ssection at row %d: %v", prefix, e.Section+1, e.Err)
	}
	return fmt.Sprintf("%s%v", prefix, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrParse) match any ParseError.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func parseErr(section int, format string, args ...any) *ParseError {
	return &ParseError{Section: section, Err: fmt.Errorf(format, args...)}
}
