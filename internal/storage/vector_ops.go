package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// searchLexical performs BM25 full-text search using FTS5. The match
// expression comes pre-compiled from the query package, so no sanitization
// happens here.
func searchLexical(ctx context.Context, db *sql.DB, match string, collections []string, limit int) ([]LexResult, error) {
	if match == "" {
		return nil, fmt.Errorf("empty match expression")
	}

	sqlQuery := `
		SELECT
			d.id as doc_id,
			bm25(documents_fts) as score
		FROM documents_fts
		INNER JOIN documents d ON documents_fts.rowid = d.id
		INNER JOIN collections c ON d.collection_id = c.id
		WHERE documents_fts MATCH ?
	`
	args := []interface{}{match}

	sqlQuery, args = applyCollectionFilter(sqlQuery, args, collections)

	// BM25 in FTS5 is negative with lower meaning better; doc id breaks ties
	sqlQuery += " ORDER BY score, d.id LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute FTS search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectLexResults(rows)
}

// searchVector performs vector similarity search using cosine similarity
func searchVector(ctx context.Context, db *sql.DB, queryVector []float32, collections []string, limit int) ([]VectorResult, error) {
	// Use optimized SQL-based search when sqlite-vec is available
	if VectorExtensionAvailable {
		return searchVectorOptimized(ctx, db, queryVector, collections, limit)
	}
	// Fall back to Go-based computation for purego builds
	return searchVectorFallback(ctx, db, queryVector, collections, limit)
}

// searchVectorOptimized uses sqlite-vec extension for SQL-based vector similarity search
func searchVectorOptimized(ctx context.Context, db *sql.DB, queryVector []float32, collections []string, limit int) ([]VectorResult, error) {
	queryVectorBlob := serializeVector(queryVector)

	// sqlite-vec's vec_distance_cosine returns distance (lower is better);
	// converted to similarity (1 - distance) to keep the API consistent.
	query := `
		SELECT
			d.id as doc_id,
			1.0 - vec_distance_cosine(e.vector, ?) as similarity
		FROM documents d
		INNER JOIN embeddings e ON d.id = e.doc_id
		INNER JOIN collections c ON d.collection_id = c.id
		WHERE 1 = 1
	`
	args := []interface{}{queryVectorBlob}

	query, args = applyCollectionFilter(query, args, collections)

	query += " ORDER BY similarity DESC, d.id LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute vector search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if limit <= 0 {
		return []VectorResult{}, nil
	}
	results := make([]VectorResult, 0, limit)
	for rows.Next() {
		var result VectorResult
		if err := rows.Scan(&result.DocID, &result.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// searchVectorFallback performs vector search using Go-based cosine similarity
// computation. This is used when sqlite-vec is not available (purego builds).
func searchVectorFallback(ctx context.Context, db *sql.DB, queryVector []float32, collections []string, limit int) ([]VectorResult, error) {
	query := `
		SELECT
			d.id as doc_id,
			e.vector
		FROM documents d
		INNER JOIN embeddings e ON d.id = e.doc_id
		INNER JOIN collections c ON d.collection_id = c.id
		WHERE 1 = 1
	`
	args := []interface{}{}

	query, args = applyCollectionFilter(query, args, collections)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates, err := computeSimilarityScores(rows, queryVector)
	if err != nil {
		return nil, err
	}

	sortCandidates(candidates)

	return buildVectorResults(candidates, limit), nil
}

// applyCollectionFilter adds a WHERE clause restricting results to the named
// collections. Empty means all collections.
func applyCollectionFilter(query string, args []interface{}, collections []string) (string, []interface{}) {
	if len(collections) == 0 {
		return query, args
	}

	query += " AND c.name IN ("
	for i, name := range collections {
		if i > 0 {
			query += ","
		}
		query += "?"
		args = append(args, name)
	}
	query += ")"
	return query, args
}

// collectLexResults converts FTS5 BM25 scores into positive relevance scores
func collectLexResults(rows *sql.Rows) ([]LexResult, error) {
	results := make([]LexResult, 0)

	for rows.Next() {
		var result LexResult
		if err := rows.Scan(&result.DocID, &result.BM25Score); err != nil {
			return nil, err
		}

		// FTS5 bm25() is negative, lower is better. Flip to a positive
		// magnitude so higher means more relevant.
		result.BM25Score = math.Abs(result.BM25Score)

		results = append(results, result)
	}

	return results, rows.Err()
}

// computeSimilarityScores processes rows and computes cosine similarity
func computeSimilarityScores(rows *sql.Rows, queryVector []float32) ([]candidate, error) {
	candidates := make([]candidate, 0, 1000)

	for rows.Next() {
		var docID int64
		var vectorBlob []byte
		if err := rows.Scan(&docID, &vectorBlob); err != nil {
			return nil, err
		}

		vector := deserializeVector(vectorBlob)
		if len(vector) != len(queryVector) {
			continue // Dimension mismatch, skip
		}

		similarity := cosineSimilarity(queryVector, vector)

		candidates = append(candidates, candidate{docID: docID, score: similarity})
	}

	return candidates, rows.Err()
}

// buildVectorResults creates VectorResult slice from candidates
func buildVectorResults(candidates []candidate, limit int) []VectorResult {
	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}

	results := make([]VectorResult, limit)
	for i := 0; i < limit; i++ {
		results[i] = VectorResult{
			DocID:      candidates[i].docID,
			Similarity: candidates[i].score,
		}
	}
	return results
}

// serializeVector converts a float32 slice to a byte blob (little-endian)
func serializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// deserializeVector converts a byte blob back to a float32 slice
func deserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// cosineSimilarity computes the cosine similarity between two vectors
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate represents a document with its similarity score
type candidate struct {
	docID int64
	score float64
}

// sortCandidates sorts candidates by score descending, doc ID ascending for
// deterministic ordering of ties.
func sortCandidates(candidates []candidate) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].docID < candidates[j].docID
	})
}

// SerializeVector converts a float32 slice into the little-endian blob
// format stored in the embeddings table.
func SerializeVector(vector []float32) []byte {
	return serializeVector(vector)
}

// DeserializeVector converts a stored blob back into a float32 slice.
func DeserializeVector(blob []byte) []float32 {
	return deserializeVector(blob)
}

// CosineSimilarity is an exported helper for testing
func CosineSimilarity(a, b []float32) float64 {
	return cosineSimilarity(a, b)
}
