package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/qmd/pkg/types"
)

func TestValidateSemanticAccepts(t *testing.T) {
	queries := []string{
		"how does rank fusion work?",
		"a well-known issue with hyphenated-words",
		"The engine merges ranked lists using reciprocal rank fusion. " +
			"Each list is weighted and the combined scores are normalized " +
			"before results are returned to the caller.",
		"either this or that", // lowercase "or" is prose
	}

	for _, q := range queries {
		assert.NoError(t, ValidateSemantic(q), "query: %s", q)
	}
}

func TestValidateSemanticRejectsNegation(t *testing.T) {
	queries := []string{
		"-draft release notes",
		"release notes -draft",
		`find docs -"internal only"`,
		"- standalone marker",
	}

	for _, q := range queries {
		err := ValidateSemantic(q)
		require.Error(t, err, "query: %s", q)
		assert.ErrorIs(t, err, types.ErrQuerySyntax)
		assert.Contains(t, err.Error(), "Negation")
	}
}

func TestValidateSemanticRejectsOR(t *testing.T) {
	queries := []string{
		"cats OR dogs",
		"OR leading",
		"trailing OR",
	}

	for _, q := range queries {
		err := ValidateSemantic(q)
		require.Error(t, err, "query: %s", q)
		assert.ErrorIs(t, err, types.ErrQuerySyntax)
		assert.Contains(t, err.Error(), "OR")
	}
}
