package types

// SearchResult is a single fused search result.
type SearchResult struct {
	// Identification
	DocID int64
	Rank  int // Position in result set (1-based)

	// Score is the combined relevance after fusion, normalized to [0, 1].
	Score float64

	// Metadata resolved from the document store
	Path       string
	Collection string
	Title      string
	Snippet    string
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.DocID == 0 {
		return ErrInvalidDocID
	}

	if sr.Rank < 1 {
		return ErrInvalidRank
	}

	if sr.Score < 0 || sr.Score > 1 {
		return ErrInvalidScore
	}

	if sr.Path == "" {
		return ErrMissingPath
	}

	return nil
}
