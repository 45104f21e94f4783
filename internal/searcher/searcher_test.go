package searcher

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/storage"
	"github.com/shaneholloman/qmd/pkg/types"
)

type corpusDoc struct {
	path    string
	title   string
	content string
}

func newTestSearcher(t *testing.T, docs []corpusDoc) (*Searcher, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		return embedder.NewLocalProvider(nil)
	})
	t.Cleanup(func() { _ = pool.Close() })

	ctx := context.Background()
	coll := &storage.Collection{Name: "notes", Path: "/corpus/notes", Mask: "*.md"}
	require.NoError(t, store.CreateCollection(ctx, coll))

	emb, release, err := pool.Acquire()
	require.NoError(t, err)
	defer release()

	for _, d := range docs {
		doc := &storage.Document{
			CollectionID: coll.ID,
			Path:         d.path,
			Title:        d.title,
			Content:      d.content,
		}
		require.NoError(t, store.UpsertDocument(ctx, doc))

		vec, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: d.content})
		require.NoError(t, err)
		require.NoError(t, store.UpsertEmbedding(ctx, &storage.Embedding{
			DocID:     doc.ID,
			Vector:    storage.SerializeVector(vec.Vector),
			Dimension: vec.Dimension,
			Provider:  emb.Provider(),
			Model:     emb.Model(),
		}))
	}

	return NewSearcher(store, pool), store
}

var fusionCorpus = []corpusDoc{
	{path: "fusion.md", title: "Rank fusion", content: "Reciprocal rank fusion combines ranked lists from multiple retrieval modes into one ordering."},
	{path: "bm25.md", title: "BM25 scoring", content: "BM25 is a lexical relevance function scoring documents against keyword queries."},
	{path: "garden.md", title: "Tomatoes", content: "Water tomato plants deeply and mulch the soil to keep moisture in the garden."},
}

func TestStructuredSearchEmptyInput(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)

	results, err := s.StructuredSearch(context.Background(), nil, types.SearchOptions{})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestStructuredSearchLexical(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)

	results, err := s.StructuredSearch(context.Background(), []types.SubSearch{
		{Type: types.SearchTypeLex, Query: "rank fusion"},
	}, types.SearchOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "fusion.md", results[0].Path)
	assert.Equal(t, "notes", results[0].Collection)
	assert.Equal(t, 1, results[0].Rank)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.NotEmpty(t, results[0].Snippet)
}

func TestStructuredSearchSemantic(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)

	results, err := s.StructuredSearch(context.Background(), []types.SubSearch{
		{Type: types.SearchTypeVec, Query: "combining ranked lists from retrieval modes"},
	}, types.SearchOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "fusion.md", results[0].Path)
}

func TestStructuredSearchMixedModes(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)

	results, err := s.StructuredSearch(context.Background(), []types.SubSearch{
		{Type: types.SearchTypeLex, Query: "fusion"},
		{Type: types.SearchTypeVec, Query: "merging ranked result lists"},
		{Type: types.SearchTypeHyde, Query: "Reciprocal rank fusion sums reciprocal ranks across lists."},
	}, types.SearchOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, results)
	assert.Equal(t, "fusion.md", results[0].Path)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		assert.Equal(t, i+1, results[i].Rank)
	}
}

func TestStructuredSearchValidatesBeforeIO(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)
	ctx := context.Background()

	_, err := s.StructuredSearch(ctx, []types.SubSearch{
		{Type: types.SearchTypeVec, Query: "cats OR dogs"},
	}, types.SearchOptions{})
	assert.ErrorContains(t, err, "OR is not supported")

	_, err = s.StructuredSearch(ctx, []types.SubSearch{
		{Type: types.SearchTypeHyde, Query: "-negated phrase"},
	}, types.SearchOptions{})
	assert.ErrorContains(t, err, "Negation syntax is not supported")

	_, err = s.StructuredSearch(ctx, []types.SubSearch{
		{Type: types.SearchTypeLex, Query: `"unterminated`},
	}, types.SearchOptions{})
	assert.ErrorIs(t, err, types.ErrQuerySyntax)

	_, err = s.StructuredSearch(ctx, []types.SubSearch{
		{Type: types.SearchType("fuzzy"), Query: "anything"},
	}, types.SearchOptions{})
	assert.ErrorContains(t, err, "unsupported search type")
}

func TestStructuredSearchCollectionFilter(t *testing.T) {
	s, store := newTestSearcher(t, fusionCorpus)
	ctx := context.Background()

	other := &storage.Collection{Name: "archive", Path: "/corpus/archive", Mask: "*.md"}
	require.NoError(t, store.CreateCollection(ctx, other))
	require.NoError(t, store.UpsertDocument(ctx, &storage.Document{
		CollectionID: other.ID,
		Path:         "old-fusion.md",
		Title:        "Old fusion notes",
		Content:      "Archived notes about rank fusion experiments.",
	}))

	all, err := s.Search(ctx, "fusion", types.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := s.Search(ctx, "fusion", types.SearchOptions{Collections: []string{"archive"}})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "archive", scoped[0].Collection)
}

func TestStructuredSearchLimit(t *testing.T) {
	docs := make([]corpusDoc, 8)
	for i := range docs {
		docs[i] = corpusDoc{
			path:    fmt.Sprintf("doc%d.md", i),
			title:   fmt.Sprintf("Doc %d", i),
			content: fmt.Sprintf("fusion notes entry number %d", i),
		}
	}
	s, _ := newTestSearcher(t, docs)

	results, err := s.Search(context.Background(), "fusion", types.SearchOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestStructuredSearchMinScore(t *testing.T) {
	s, _ := newTestSearcher(t, fusionCorpus)

	results, err := s.StructuredSearch(context.Background(), []types.SubSearch{
		{Type: types.SearchTypeLex, Query: "fusion OR bm25 OR tomato"},
	}, types.SearchOptions{MinScore: 1.0})
	require.NoError(t, err)

	require.Len(t, results, 1, "only the top-normalized document survives minScore 1.0")
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestStructuredSearchEmbedderFailure(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		return nil, errors.New("no backend configured")
	})
	t.Cleanup(func() { _ = pool.Close() })

	s := NewSearcher(store, pool)
	_, err = s.StructuredSearch(context.Background(), []types.SubSearch{
		{Type: types.SearchTypeVec, Query: "anything"},
	}, types.SearchOptions{})
	assert.ErrorIs(t, err, types.ErrEmbedderUnavailable)
}

func TestStructuredSearchLexOnlySkipsEmbedder(t *testing.T) {
	// A failing embedder backend must not matter for purely lexical calls.
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	coll := &storage.Collection{Name: "notes", Path: "/corpus/notes", Mask: "*.md"}
	require.NoError(t, store.CreateCollection(ctx, coll))
	require.NoError(t, store.UpsertDocument(ctx, &storage.Document{
		CollectionID: coll.ID,
		Path:         "a.md",
		Title:        "A",
		Content:      "lexical only search content",
	}))

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		return nil, errors.New("no backend configured")
	})
	t.Cleanup(func() { _ = pool.Close() })

	s := NewSearcher(store, pool)
	results, err := s.Search(ctx, "lexical", types.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
