package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/qmd/pkg/types"
)

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []types.SubSearch
	}{
		{
			name:  "two typed lines",
			input: "lex: a\nvec: b",
			want: []types.SubSearch{
				{Type: types.SearchTypeLex, Query: "a"},
				{Type: types.SearchTypeVec, Query: "b"},
			},
		},
		{
			name:  "three typed lines preserve order",
			input: "hyde: p\nvec: q\nlex: r",
			want: []types.SubSearch{
				{Type: types.SearchTypeHyde, Query: "p"},
				{Type: types.SearchTypeVec, Query: "q"},
				{Type: types.SearchTypeLex, Query: "r"},
			},
		},
		{
			name:  "untyped line becomes leading lex",
			input: "keywords\nhyde: x\nvec: y",
			want: []types.SubSearch{
				{Type: types.SearchTypeLex, Query: "keywords"},
				{Type: types.SearchTypeHyde, Query: "x"},
				{Type: types.SearchTypeVec, Query: "y"},
			},
		},
		{
			name:  "untyped line leads even when last",
			input: "vec: y\nkeywords",
			want: []types.SubSearch{
				{Type: types.SearchTypeLex, Query: "keywords"},
				{Type: types.SearchTypeVec, Query: "y"},
			},
		},
		{
			name:  "prefix is case-insensitive",
			input: "LEX: a\nVec: b\nHYDE: c",
			want: []types.SubSearch{
				{Type: types.SearchTypeLex, Query: "a"},
				{Type: types.SearchTypeVec, Query: "b"},
				{Type: types.SearchTypeHyde, Query: "c"},
			},
		},
		{
			name:  "empty prefixed value is dropped",
			input: "lex: \nvec: actual",
			want: []types.SubSearch{
				{Type: types.SearchTypeVec, Query: "actual"},
			},
		},
		{
			name:  "colons inside query text are preserved",
			input: "vec: how does x: work?\nlex: key:value",
			want: []types.SubSearch{
				{Type: types.SearchTypeVec, Query: "how does x: work?"},
				{Type: types.SearchTypeLex, Query: "key:value"},
			},
		},
		{
			name:  "blank lines are ignored",
			input: "\n\nlex: a\n\n\nvec: b\n",
			want: []types.SubSearch{
				{Type: types.SearchTypeLex, Query: "a"},
				{Type: types.SearchTypeVec, Query: "b"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructured(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStructuredFallback(t *testing.T) {
	// Inputs that are not structured queries return nil so the caller can
	// use its ordinary single-query path.
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"whitespace only", "  \n\t\n  "},
		{"single untyped line", "just a plain query"},
		{"single untyped line with inner colon", "note: remember this"},
		{"all prefixed values empty", "lex: \nvec:\nhyde:   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructured(tt.input)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestParseStructuredAmbiguous(t *testing.T) {
	inputs := []string{
		"first plain line\nsecond plain line",
		"plain one\nlex: typed\nplain two",
	}

	for _, input := range inputs {
		_, err := ParseStructured(input)
		assert.ErrorIs(t, err, types.ErrAmbiguousQuery)
	}
}

func TestParseStructuredPrefixNotFooledByLongerWord(t *testing.T) {
	// "lexicon:" is not the "lex:" prefix.
	got, err := ParseStructured("lexicon: definitions\nvec: b")
	require.NoError(t, err)
	assert.Equal(t, []types.SubSearch{
		{Type: types.SearchTypeLex, Query: "lexicon: definitions"},
		{Type: types.SearchTypeVec, Query: "b"},
	}, got)
}
