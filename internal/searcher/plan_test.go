package searcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/qmd/pkg/types"
)

func TestPlanQueryStructured(t *testing.T) {
	searches, err := PlanQuery("lex: exact terms\nvec: related concepts")
	require.NoError(t, err)
	require.Len(t, searches, 2)
	assert.Equal(t, types.SearchTypeLex, searches[0].Type)
	assert.Equal(t, "exact terms", searches[0].Query)
	assert.Equal(t, types.SearchTypeVec, searches[1].Type)
}

func TestPlanQueryPlainFallsBackToHybrid(t *testing.T) {
	searches, err := PlanQuery("plain prose query")
	require.NoError(t, err)
	require.Len(t, searches, 2)
	assert.Equal(t, types.SearchTypeLex, searches[0].Type)
	assert.Equal(t, "plain prose query", searches[0].Query)
	assert.Equal(t, types.SearchTypeVec, searches[1].Type)
	assert.Equal(t, "plain prose query", searches[1].Query)
}

func TestPlanQueryOperatorsStayLexical(t *testing.T) {
	searches, err := PlanQuery("cats OR dogs")
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, types.SearchTypeLex, searches[0].Type)

	searches, err = PlanQuery(`markdown -draft`)
	require.NoError(t, err)
	require.Len(t, searches, 1)
	assert.Equal(t, types.SearchTypeLex, searches[0].Type)
}

func TestPlanQueryAmbiguous(t *testing.T) {
	_, err := PlanQuery("first line\nsecond line")
	assert.ErrorIs(t, err, types.ErrAmbiguousQuery)
}
