package routine

import (
	"errors"
	"fmt"
)

// Error taxonomy. Not-found and stale errors are slot/row scoped and
// recovered by skipping the unit of work; a contract violation is fatal to
// the whole run.
var (
	ErrNotFound = errors.New("not found")
	ErrStale    = errors.New("stale reference")
	ErrContract = errors.New("page contract violation")
)

// taggedError carries a taxonomy sentinel without polluting the user-visible
// message, which is written verbatim into the report's Submitted column.
type taggedError struct {
	tag error
	msg string
}

func (e *taggedError) Error() string { return e.msg }
func (e *taggedError) Unwrap() error { return e.tag }

func notFoundf(format string, args ...any) error {
	return &taggedError{tag: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func stalef(format string, args ...any) error {
	return &taggedError{tag: ErrStale, msg: fmt.Sprintf(format, args...)}
}

func contractf(format string, args ...any) error {
	return &taggedError{tag: ErrContract, msg: fmt.Sprintf(format, args...)}
}
