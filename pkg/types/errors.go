package types

import "errors"

// Search and query errors surfaced to callers.
var (
	// ErrAmbiguousQuery is returned by the structured query parser when the
	// input contains multiple lines without a type prefix.
	ErrAmbiguousQuery = errors.New("ambiguous query: multiple lines without a type prefix")

	// ErrQuerySyntax is returned when a query uses a construct its mode does
	// not support. Wrapping errors name the offending construct.
	ErrQuerySyntax = errors.New("query syntax error")

	// ErrEmbedderUnavailable is returned when the embedding backend cannot
	// produce a vector.
	ErrEmbedderUnavailable = errors.New("embedding backend unavailable")
)

// Result validation errors.
var (
	ErrInvalidDocID = errors.New("invalid document ID")
	ErrInvalidRank  = errors.New("rank must be >= 1")
	ErrInvalidScore = errors.New("score must be between 0 and 1")
	ErrMissingPath  = errors.New("document path is required")
)
