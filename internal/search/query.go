package search

import (
	"fmt"
	"regexp"
)

// Query describes what to search for.
// Queries are comparable values and can key maps.
type Query struct {
	Pattern       string
	CaseSensitive bool
	IsRegex       bool
}

// NewQuery creates a query.
func NewQuery(pattern string, caseSensitive, isRegex bool) Query {
	return Query{Pattern: pattern, CaseSensitive: caseSensitive, IsRegex: isRegex}
}

// String returns a human-readable representation of the query.
func (q Query) String() string {
	flags := ""
	if q.CaseSensitive {
		flags += "c"
	}
	if q.IsRegex {
		flags += "r"
	}
	if flags == "" {
		return fmt.Sprintf("%q", q.Pattern)
	}
	return fmt.Sprintf("%q/%s", q.Pattern, flags)
}

// Validate checks that the query can be searched for.
// It returns a *QueryError.
func (q Query) Validate() error {
	_, err := q.compile()
	return err
}

// compile validates q and, for regex queries, compiles it.
func (q Query) compile() (*regexp.Regexp, error) {
	if q.Pattern == "" {
		return nil, &QueryError{Query: q, Err: ErrEmptyQuery}
	}
	if !q.IsRegex {
		return nil, nil
	}
	pattern := q.Pattern
	if !q.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &QueryError{Query: q, Err: ErrInvalidPattern, Cause: err}
	}
	return re, nil
}
