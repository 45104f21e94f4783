package searcher

import "sort"

const (
	// rrfK is the Reciprocal Rank Fusion smoothing constant. k=60 is the
	// standard value used across search engines.
	rrfK = 60.0

	// firstSearchWeight boosts the first-listed sub-search. The caller's
	// first guess is presumed most likely correct, so its contribution
	// counts double when combining heterogeneous retrieval modes.
	firstSearchWeight = 2.0
)

// rawHit is one ranked result from a single sub-search. The score scale is
// mode-specific (BM25 magnitude or cosine similarity) and is only used for
// reporting; fusion itself is rank-based.
type rawHit struct {
	docID int64
	score float64
}

// fusedDoc is a document with its combined fusion score.
type fusedDoc struct {
	docID int64
	score float64
}

// fuseRanked merges the ranked lists of all sub-searches into one ordered,
// deduplicated list using weighted Reciprocal Rank Fusion.
//
// Raw scores from different modes are not additive, so each list is
// normalized by rank: a document at rank r contributes weight/(k+r). The
// sub-search at position 0 carries firstSearchWeight, all others 1.0.
// Combined scores are scaled so the best document scores 1.0, which gives
// minScore a stable meaning across queries. Ties are broken by document ID
// for determinism.
//
// Fusing a single list reproduces its relative order exactly, since the
// rank contribution is strictly decreasing.
func fuseRanked(lists [][]rawHit, minScore float64, limit int) []fusedDoc {
	scores := make(map[int64]float64)

	for i, list := range lists {
		weight := 1.0
		if i == 0 {
			weight = firstSearchWeight
		}
		for rank, hit := range list {
			scores[hit.docID] += weight / (rrfK + float64(rank+1))
		}
	}

	if len(scores) == 0 {
		return []fusedDoc{}
	}

	var maxScore float64
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}

	fused := make([]fusedDoc, 0, len(scores))
	for docID, s := range scores {
		normalized := s / maxScore
		if normalized < minScore {
			continue
		}
		fused = append(fused, fusedDoc{docID: docID, score: normalized})
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].score != fused[j].score {
			return fused[i].score > fused[j].score
		}
		return fused[i].docID < fused[j].docID
	})

	if limit > 0 && len(fused) > limit {
		fused = fused[:limit]
	}

	return fused
}
