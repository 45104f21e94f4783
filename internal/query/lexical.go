package query

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shaneholloman/qmd/pkg/types"
)

// lexToken is one unit of a lexical query expression.
type lexToken struct {
	text    string
	phrase  bool // quoted phrase, matched as adjacent terms
	exclude bool // preceded by '-'
	or      bool // the OR operator
}

// CompileLexical compiles a lexical query expression into an SQLite FTS5
// MATCH expression.
//
// Grammar:
//   - bare word        -> prefix match (word*)
//   - "quoted phrase"  -> exact adjacent-term match
//   - -term, -"phrase" -> exclude documents containing it
//   - a OR b           -> either term matches instead of the implicit AND
//
// The returned error wraps types.ErrQuerySyntax for unbalanced quotes,
// dangling operators, and expressions with no positive term.
func CompileLexical(q string) (string, error) {
	toks, err := scanLexTokens(q)
	if err != nil {
		return "", err
	}

	var positives []string
	var excludes []string
	pendingOR := false

	for _, tok := range toks {
		if tok.or {
			if pendingOR || len(positives) == 0 {
				return "", fmt.Errorf("%w: OR must join two terms", types.ErrQuerySyntax)
			}
			pendingOR = true
			continue
		}

		unit, err := formatMatchUnit(tok)
		if err != nil {
			return "", err
		}
		if unit == "" {
			// Token sanitized away entirely (punctuation only).
			if pendingOR {
				return "", fmt.Errorf("%w: OR must join two terms", types.ErrQuerySyntax)
			}
			continue
		}

		if tok.exclude {
			if pendingOR {
				return "", fmt.Errorf("%w: cannot combine OR with an excluded term", types.ErrQuerySyntax)
			}
			excludes = append(excludes, unit)
			continue
		}

		if pendingOR {
			last := positives[len(positives)-1]
			if strings.HasPrefix(last, "(") && strings.HasSuffix(last, ")") {
				// Extend an existing OR group: (a OR b) + c -> (a OR b OR c)
				positives[len(positives)-1] = last[:len(last)-1] + " OR " + unit + ")"
			} else {
				positives[len(positives)-1] = "(" + last + " OR " + unit + ")"
			}
			pendingOR = false
			continue
		}

		positives = append(positives, unit)
	}

	if pendingOR {
		return "", fmt.Errorf("%w: OR must join two terms", types.ErrQuerySyntax)
	}
	if len(positives) == 0 {
		if len(excludes) > 0 {
			return "", fmt.Errorf("%w: query must contain at least one non-excluded term", types.ErrQuerySyntax)
		}
		return "", fmt.Errorf("%w: empty query", types.ErrQuerySyntax)
	}

	expr := strings.Join(positives, " AND ")
	for _, excl := range excludes {
		// FTS5 NOT is binary set difference, so exclusions are chained.
		expr = "(" + expr + ") NOT " + excl
	}

	return expr, nil
}

// scanLexTokens splits a lexical query into tokens, honoring quoted phrases
// and '-' exclusion prefixes.
func scanLexTokens(q string) ([]lexToken, error) {
	var toks []lexToken
	rs := []rune(q)
	i := 0

	for i < len(rs) {
		for i < len(rs) && unicode.IsSpace(rs[i]) {
			i++
		}
		if i >= len(rs) {
			break
		}

		var tok lexToken
		if rs[i] == '-' {
			tok.exclude = true
			i++
			if i >= len(rs) || unicode.IsSpace(rs[i]) {
				return nil, fmt.Errorf("%w: dangling '-' exclusion", types.ErrQuerySyntax)
			}
		}

		if rs[i] == '"' {
			i++
			start := i
			for i < len(rs) && rs[i] != '"' {
				i++
			}
			if i >= len(rs) {
				return nil, fmt.Errorf("%w: unterminated quoted phrase", types.ErrQuerySyntax)
			}
			tok.phrase = true
			tok.text = string(rs[start:i])
			i++ // closing quote
		} else {
			start := i
			for i < len(rs) && !unicode.IsSpace(rs[i]) {
				i++
			}
			tok.text = string(rs[start:i])
			if tok.text == "OR" && !tok.exclude {
				tok.or = true
			}
		}

		toks = append(toks, tok)
	}

	return toks, nil
}

// formatMatchUnit renders a token as an FTS5 match unit. Bare words become
// prefix matches; phrases are quoted with internal quotes doubled.
func formatMatchUnit(tok lexToken) (string, error) {
	if tok.phrase {
		text := strings.TrimSpace(tok.text)
		if text == "" {
			return "", fmt.Errorf("%w: empty quoted phrase", types.ErrQuerySyntax)
		}
		return `"` + strings.ReplaceAll(text, `"`, `""`) + `"`, nil
	}

	word := sanitizeTerm(tok.text)
	if word == "" {
		return "", nil
	}
	return word + "*", nil
}

// sanitizeTerm strips characters that carry meaning in FTS5 expressions,
// keeping letters, digits and underscores.
func sanitizeTerm(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
