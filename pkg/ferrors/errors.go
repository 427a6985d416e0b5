// Package ferrors defines the value-typed error kinds shared by the index
// builder and the query engine. Every exported error is a sentinel that
// satisfies errors.Is through wrapping, never a non-local control-flow
// mechanism (panics cross no package boundary in this module).
package ferrors

import "errors"

// Sentinel kinds. Wrap with fmt.Errorf("...: %w", ErrX) to add context.
var (
	// ErrNotFound covers a missing dataset file, index artifact, or
	// stopwords file during builder/querier initialization.
	ErrNotFound = errors.New("not found")

	// ErrMalformed covers unparseable JSON/CSV/posting rows.
	ErrMalformed = errors.New("malformed data")

	// ErrInvariant covers inconsistencies that must never happen if the
	// builder and finalizer ran correctly (mismatched posting counts,
	// out-of-range partition indices).
	ErrInvariant = errors.New("invariant violation")
)

// NotFound wraps ErrNotFound with context.
func NotFound(what string) error {
	return &kindError{kind: ErrNotFound, what: what}
}

// Malformed wraps ErrMalformed with context.
func Malformed(what string) error {
	return &kindError{kind: ErrMalformed, what: what}
}

// Invariant wraps ErrInvariant with context.
func Invariant(what string) error {
	return &kindError{kind: ErrInvariant, what: what}
}

type kindError struct {
	kind error
	what string
}

func (e *kindError) Error() string { return e.kind.Error() + ": " + e.what }
func (e *kindError) Unwrap() error { return e.kind }
