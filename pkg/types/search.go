package types

import (
	"fmt"
	"strings"
)

// SearchType identifies the retrieval mode of a single sub-search.
type SearchType string

const (
	// SearchTypeLex is keyword search ranked by BM25.
	SearchTypeLex SearchType = "lex"
	// SearchTypeVec is semantic search over document embeddings.
	SearchTypeVec SearchType = "vec"
	// SearchTypeHyde is semantic search where the query text is a
	// hypothetical answer passage rather than a question.
	SearchTypeHyde SearchType = "hyde"
)

// ParseSearchType converts a string into a SearchType.
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(strings.ToLower(strings.TrimSpace(s))) {
	case SearchTypeLex:
		return SearchTypeLex, nil
	case SearchTypeVec:
		return SearchTypeVec, nil
	case SearchTypeHyde:
		return SearchTypeHyde, nil
	default:
		return "", fmt.Errorf("unknown search type: %q", s)
	}
}

// SubSearch is one typed component of a structured query.
type SubSearch struct {
	Type  SearchType
	Query string
}

// SearchOptions control scoping and ranking for a structured search.
type SearchOptions struct {
	// Collections restricts the search to the named collections.
	// Empty means all collections.
	Collections []string
	// Limit caps the number of fused results. Zero or negative uses
	// DefaultLimit.
	Limit int
	// MinScore drops fused results whose combined score falls below it.
	// Fused scores are normalized to [0, 1].
	MinScore float64
}

const (
	// DefaultLimit is applied when SearchOptions.Limit is unset.
	DefaultLimit = 20
	// MaxLimit caps SearchOptions.Limit.
	MaxLimit = 100
)

// Normalize applies defaults and clamps to valid ranges.
func (o *SearchOptions) Normalize() {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.MinScore < 0 {
		o.MinScore = 0
	}
}
