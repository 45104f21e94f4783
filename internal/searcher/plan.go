package searcher

import (
	"github.com/shaneholloman/qmd/internal/query"
	"github.com/shaneholloman/qmd/pkg/types"
)

// PlanQuery turns raw query text into an executable sub-search list.
// Structured input (lex:/vec:/hyde: lines) is taken as written. A plain
// single-line query falls back to hybrid lexical plus semantic search,
// dropping the semantic half when the text uses operators only the lexical
// grammar understands.
func PlanQuery(queryText string) ([]types.SubSearch, error) {
	searches, err := query.ParseStructured(queryText)
	if err != nil {
		return nil, err
	}
	if searches != nil {
		return searches, nil
	}

	searches = []types.SubSearch{{Type: types.SearchTypeLex, Query: queryText}}
	if query.ValidateSemantic(queryText) == nil {
		searches = append(searches, types.SubSearch{Type: types.SearchTypeVec, Query: queryText})
	}
	return searches, nil
}
