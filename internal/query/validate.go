package query

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shaneholloman/qmd/pkg/types"
)

// ValidateSemantic checks a vec or hyde query for operators that only the
// lexical grammar supports. It is purely syntactic: plain prose, including
// full sentences and multi-clause hypothetical passages, always passes.
//
// The returned error wraps types.ErrQuerySyntax and names the offending
// construct.
func ValidateSemantic(q string) error {
	for _, tok := range strings.Fields(q) {
		if tok == "OR" {
			return fmt.Errorf("%w: OR is not supported in semantic search", types.ErrQuerySyntax)
		}
		if isExclusionToken(tok) {
			return fmt.Errorf("%w: Negation syntax is not supported in semantic search", types.ErrQuerySyntax)
		}
	}
	return nil
}

// isExclusionToken reports whether tok looks like a lexical NOT operator:
// a lone "-", or "-" directly followed by a word or a quoted phrase.
// Hyphens inside words ("well-known") do not count.
func isExclusionToken(tok string) bool {
	if tok == "-" {
		return true
	}
	if !strings.HasPrefix(tok, "-") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok[1:])
	return r == '"' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
