// Package storage provides SQLite-backed persistence for collections,
// documents, and embeddings, with schema migrations and both lexical (FTS5
// BM25) and vector (cosine similarity) search.
//
// # Architecture
//
// The package uses SQLite with one of two drivers selected at build time:
//
//   - mattn/go-sqlite3 (CGO, sqlite_vec tag): enables the sqlite-vec
//     extension for SQL-level vector distance computation
//   - modernc.org/sqlite (pure Go, default): vector similarity is computed
//     in Go over the candidate set
//
// # Schema
//
// Four tables plus one FTS5 index:
//
//	collections    named corpus partitions (name, root path, glob mask)
//	documents      indexed text files, unique per (collection, path)
//	documents_fts  external-content FTS5 index over title and content
//	embeddings     one serialized float32 vector per document
//
// Triggers keep documents_fts synchronized with the documents table, so
// callers never write to the FTS index directly.
//
// # Usage
//
//	store, err := storage.NewSQLiteStorage("~/.qmd/index.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	hits, err := store.SearchLexical(ctx, `fusion* AND rank*`, nil, 20)
//
// SearchLexical expects a compiled FTS5 expression (see the query package);
// SearchVector expects a query embedding of the same dimension as the stored
// vectors. Both return results ordered best-first with document ID as the
// deterministic tie-break.
//
// # Migrations
//
// The schema is versioned with semver identifiers recorded in the
// schema_version table. NewSQLiteStorage applies pending migrations on open.
package storage
