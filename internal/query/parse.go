package query

import (
	"strings"

	"github.com/shaneholloman/qmd/pkg/types"
)

// typePrefixes maps line-initial prefixes to their search types. Matching is
// case-insensitive and only the first token of a line is considered, so
// colons later in the query text are preserved.
var typePrefixes = []struct {
	prefix string
	typ    types.SearchType
}{
	{"lex:", types.SearchTypeLex},
	{"vec:", types.SearchTypeVec},
	{"hyde:", types.SearchTypeHyde},
}

// ParseStructured splits a multi-line query into typed sub-searches.
//
// Each line may carry a "lex:", "vec:" or "hyde:" prefix. A single untyped
// line alongside typed lines becomes an implicit lex sub-search placed first
// in the result, ahead of all typed entries. Lines whose value is empty after
// prefix stripping contribute nothing.
//
// Returns (nil, nil) when the input is empty, is a single untyped line, or
// yields no sub-searches; the caller should fall back to its ordinary
// single-query path. Returns types.ErrAmbiguousQuery when two or more
// untyped lines are present, since their intent cannot be inferred.
func ParseStructured(input string) ([]types.SubSearch, error) {
	var typed []types.SubSearch
	var plain []string

	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		matched := false
		for _, tp := range typePrefixes {
			if len(line) < len(tp.prefix) {
				continue
			}
			if !strings.EqualFold(line[:len(tp.prefix)], tp.prefix) {
				continue
			}
			matched = true
			if value := strings.TrimSpace(line[len(tp.prefix):]); value != "" {
				typed = append(typed, types.SubSearch{Type: tp.typ, Query: value})
			}
			break
		}
		if !matched {
			plain = append(plain, line)
		}
	}

	if len(plain) > 1 {
		return nil, types.ErrAmbiguousQuery
	}

	// A lone untyped line is an ordinary query, not a structured one.
	if len(typed) == 0 {
		return nil, nil
	}

	searches := make([]types.SubSearch, 0, len(typed)+1)
	if len(plain) == 1 {
		searches = append(searches, types.SubSearch{Type: types.SearchTypeLex, Query: plain[0]})
	}
	searches = append(searches, typed...)

	return searches, nil
}
