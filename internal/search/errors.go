package search

import (
	"errors"
	"fmt"
)

// Errors returned by search operations.
var (
	ErrEmptyQuery      = errors.New("search text is empty")
	ErrInvalidPattern  = errors.New("invalid regular expression")
	ErrSearchCanceled  = errors.New("search canceled")
	ErrStaleMatchIndex = errors.New("match index is stale")
	ErrMatchOutOfRange = errors.New("match index out of range")
)

// QueryError reports a query that cannot be searched for.
type QueryError struct {
	Query Query
	// Err is ErrEmptyQuery or ErrInvalidPattern.
	Err error
	// Cause is the regexp compile error, if any.
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v %q: %v", e.Err, e.Query.Pattern, e.Cause)
	}
	return e.Err.Error()
}

// Unwrap returns the sentinel error.
func (e *QueryError) Unwrap() error {
	return e.Err
}
