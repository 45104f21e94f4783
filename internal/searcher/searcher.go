package searcher

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/query"
	"github.com/shaneholloman/qmd/internal/storage"
	"github.com/shaneholloman/qmd/pkg/types"
)

// Searcher executes structured searches against the lexical and vector
// indexes and fuses their results.
type Searcher struct {
	storage storage.Storage
	pool    *embedder.Pool
}

// NewSearcher creates a new Searcher instance
func NewSearcher(store storage.Storage, pool *embedder.Pool) *Searcher {
	return &Searcher{
		storage: store,
		pool:    pool,
	}
}

// subPlan is a validated, compiled sub-search ready for execution.
type subPlan struct {
	sub   types.SubSearch
	match string // compiled FTS5 expression, lex only
}

// StructuredSearch runs all sub-searches concurrently, waits for every
// result, and fuses them into a single ranked list.
//
// Sub-search order matters: the first entry's results carry extra fusion
// weight, and that order is preserved regardless of which sub-search's I/O
// completes first. Any sub-search failure aborts the whole call rather than
// fusing a partial set.
func (s *Searcher) StructuredSearch(ctx context.Context, searches []types.SubSearch, opts types.SearchOptions) ([]types.SearchResult, error) {
	if len(searches) == 0 {
		return []types.SearchResult{}, nil
	}

	opts.Normalize()

	// Validate and compile everything before touching the index
	plans, needsEmbedder, err := buildPlans(searches)
	if err != nil {
		return nil, err
	}

	// The embedding backend is acquired once for the whole call so Close
	// cannot tear it down mid-search.
	var emb embedder.Embedder
	if needsEmbedder {
		acquired, release, err := s.pool.Acquire()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", types.ErrEmbedderUnavailable, err)
		}
		defer release()
		emb = acquired
	}

	// Fetch more than the final limit from each sub-search so fusion has
	// overlap to work with
	fetchLimit := opts.Limit * 2

	lists := make([][]rawHit, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		g.Go(func() error {
			hits, err := s.executePlan(gctx, plan, emb, opts.Collections, fetchLimit)
			if err != nil {
				return err
			}
			lists[i] = hits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := fuseRanked(lists, opts.MinScore, opts.Limit)

	return s.resolveResults(ctx, fused)
}

// Search runs a single lexical search.
func (s *Searcher) Search(ctx context.Context, q string, opts types.SearchOptions) ([]types.SearchResult, error) {
	return s.StructuredSearch(ctx, []types.SubSearch{{Type: types.SearchTypeLex, Query: q}}, opts)
}

// VectorSearch runs a single semantic search.
func (s *Searcher) VectorSearch(ctx context.Context, q string, opts types.SearchOptions) ([]types.SearchResult, error) {
	return s.StructuredSearch(ctx, []types.SubSearch{{Type: types.SearchTypeVec, Query: q}}, opts)
}

// buildPlans validates each sub-search for its mode and compiles lexical
// expressions, so syntax errors surface before any index I/O.
func buildPlans(searches []types.SubSearch) ([]subPlan, bool, error) {
	plans := make([]subPlan, len(searches))
	needsEmbedder := false

	for i, sub := range searches {
		switch sub.Type {
		case types.SearchTypeLex:
			match, err := query.CompileLexical(sub.Query)
			if err != nil {
				return nil, false, err
			}
			plans[i] = subPlan{sub: sub, match: match}
		case types.SearchTypeVec, types.SearchTypeHyde:
			if err := query.ValidateSemantic(sub.Query); err != nil {
				return nil, false, err
			}
			plans[i] = subPlan{sub: sub}
			needsEmbedder = true
		default:
			return nil, false, fmt.Errorf("unsupported search type: %s", sub.Type)
		}
	}

	return plans, needsEmbedder, nil
}

// executePlan dispatches one sub-search to the appropriate index.
func (s *Searcher) executePlan(ctx context.Context, plan subPlan, emb embedder.Embedder, collections []string, limit int) ([]rawHit, error) {
	switch plan.sub.Type {
	case types.SearchTypeLex:
		return s.lexSearch(ctx, plan.match, collections, limit)
	case types.SearchTypeVec, types.SearchTypeHyde:
		// vec and hyde share the same mechanism; they differ only in the
		// expected style of the query text
		return s.semanticSearch(ctx, emb, plan.sub.Query, collections, limit)
	default:
		return nil, fmt.Errorf("unsupported search type: %s", plan.sub.Type)
	}
}

// lexSearch queries the FTS index with a compiled match expression.
func (s *Searcher) lexSearch(ctx context.Context, match string, collections []string, limit int) ([]rawHit, error) {
	results, err := s.storage.SearchLexical(ctx, match, collections, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}

	hits := make([]rawHit, len(results))
	for i, r := range results {
		hits[i] = rawHit{docID: r.DocID, score: r.BM25Score}
	}
	return hits, nil
}

// semanticSearch embeds the query text and queries the vector index.
func (s *Searcher) semanticSearch(ctx context.Context, emb embedder.Embedder, text string, collections []string, limit int) ([]rawHit, error) {
	embedding, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedderUnavailable, err)
	}

	results, err := s.storage.SearchVector(ctx, embedding.Vector, collections, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	hits := make([]rawHit, len(results))
	for i, r := range results {
		hits[i] = rawHit{docID: r.DocID, score: r.Similarity}
	}
	return hits, nil
}

// resolveResults looks up document metadata for the surviving fused docs.
func (s *Searcher) resolveResults(ctx context.Context, fused []fusedDoc) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0, len(fused))

	for _, fd := range fused {
		ref, err := s.storage.ResolveDoc(ctx, fd.docID)
		if errors.Is(err, storage.ErrNotFound) {
			// The document vanished between ranking and resolution
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve document %d: %w", fd.docID, err)
		}

		results = append(results, types.SearchResult{
			DocID:      fd.docID,
			Rank:       len(results) + 1,
			Score:      fd.score,
			Path:       ref.Path,
			Collection: ref.Collection,
			Title:      ref.Title,
			Snippet:    ref.Snippet,
		})
	}

	return results, nil
}
