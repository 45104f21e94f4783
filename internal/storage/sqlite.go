package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Collection operations

func (s *SQLiteStorage) CreateCollection(ctx context.Context, coll *Collection) error {
	query := `
		INSERT INTO collections (name, path, mask, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	now := time.Now()
	if coll.Mask == "" {
		coll.Mask = "*.md"
	}
	result, err := s.db.ExecContext(ctx, query, coll.Name, coll.Path, coll.Mask, now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("collection %s: %w", coll.Name, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create collection: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	coll.ID = id
	coll.CreatedAt = now
	coll.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) GetCollection(ctx context.Context, name string) (*Collection, error) {
	query := `
		SELECT id, name, path, mask, created_at, updated_at
		FROM collections
		WHERE name = ?
	`
	var coll Collection
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&coll.ID, &coll.Name, &coll.Path, &coll.Mask, &coll.CreatedAt, &coll.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &coll, nil
}

func (s *SQLiteStorage) ListCollections(ctx context.Context) ([]*Collection, error) {
	query := `
		SELECT id, name, path, mask, created_at, updated_at
		FROM collections
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	colls := make([]*Collection, 0)
	for rows.Next() {
		var coll Collection
		err := rows.Scan(&coll.ID, &coll.Name, &coll.Path, &coll.Mask, &coll.CreatedAt, &coll.UpdatedAt)
		if err != nil {
			return nil, err
		}
		colls = append(colls, &coll)
	}
	return colls, rows.Err()
}

func (s *SQLiteStorage) DeleteCollection(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM collections WHERE name = ?`, name)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Document operations

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	// Atomic INSERT ... ON CONFLICT to avoid race conditions
	query := `
		INSERT INTO documents (
			collection_id, path, title, content, content_hash,
			mod_time, size_bytes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection_id, path)
		DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		doc.CollectionID, doc.Path, doc.Title, doc.Content, doc.ContentHash[:],
		doc.ModTime, doc.SizeBytes, now, now,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, docID int64) (*Document, error) {
	query := `
		SELECT id, collection_id, path, title, content, content_hash,
		       mod_time, size_bytes, created_at, updated_at
		FROM documents
		WHERE id = ?
	`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, docID))
}

func (s *SQLiteStorage) GetDocumentByPath(ctx context.Context, collectionID int64, path string) (*Document, error) {
	query := `
		SELECT id, collection_id, path, title, content, content_hash,
		       mod_time, size_bytes, created_at, updated_at
		FROM documents
		WHERE collection_id = ? AND path = ?
	`
	return s.scanDocument(s.db.QueryRowContext(ctx, query, collectionID, path))
}

func (s *SQLiteStorage) scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	var hash []byte
	err := row.Scan(
		&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title, &doc.Content, &hash,
		&doc.ModTime, &doc.SizeBytes, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	return &doc, nil
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error) {
	query := `
		SELECT id, collection_id, path, title, content, content_hash,
		       mod_time, size_bytes, created_at, updated_at
		FROM documents
		WHERE collection_id = ?
		ORDER BY path
	`
	return s.queryDocuments(ctx, query, collectionID)
}

func (s *SQLiteStorage) ListDocumentsMissingEmbeddings(ctx context.Context, collectionID int64) ([]*Document, error) {
	query := `
		SELECT d.id, d.collection_id, d.path, d.title, d.content, d.content_hash,
		       d.mod_time, d.size_bytes, d.created_at, d.updated_at
		FROM documents d
		LEFT JOIN embeddings e ON d.id = e.doc_id
		WHERE d.collection_id = ? AND e.id IS NULL
		ORDER BY d.path
	`
	return s.queryDocuments(ctx, query, collectionID)
}

func (s *SQLiteStorage) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	docs := make([]*Document, 0)
	for rows.Next() {
		var doc Document
		var hash []byte
		err := rows.Scan(
			&doc.ID, &doc.CollectionID, &doc.Path, &doc.Title, &doc.Content, &hash,
			&doc.ModTime, &doc.SizeBytes, &doc.CreatedAt, &doc.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		copy(doc.ContentHash[:], hash)
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, docID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, docID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Embedding operations

func (s *SQLiteStorage) UpsertEmbedding(ctx context.Context, emb *Embedding) error {
	query := `
		INSERT INTO embeddings (doc_id, vector, dimension, provider, model, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id)
		DO UPDATE SET
			vector = excluded.vector,
			dimension = excluded.dimension,
			provider = excluded.provider,
			model = excluded.model,
			created_at = excluded.created_at
		RETURNING id
	`
	now := time.Now()
	err := s.db.QueryRowContext(ctx, query,
		emb.DocID, emb.Vector, emb.Dimension, emb.Provider, emb.Model, now,
	).Scan(&emb.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}
	emb.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) GetEmbedding(ctx context.Context, docID int64) (*Embedding, error) {
	query := `
		SELECT id, doc_id, vector, dimension, provider, model, created_at
		FROM embeddings
		WHERE doc_id = ?
	`
	var emb Embedding
	err := s.db.QueryRowContext(ctx, query, docID).Scan(
		&emb.ID, &emb.DocID, &emb.Vector, &emb.Dimension,
		&emb.Provider, &emb.Model, &emb.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &emb, nil
}

// Search operations

func (s *SQLiteStorage) SearchLexical(ctx context.Context, match string, collections []string, limit int) ([]LexResult, error) {
	return searchLexical(ctx, s.db, match, collections, limit)
}

func (s *SQLiteStorage) SearchVector(ctx context.Context, vector []float32, collections []string, limit int) ([]VectorResult, error) {
	return searchVector(ctx, s.db, vector, collections, limit)
}

// ResolveDoc resolves a document ID into result metadata
func (s *SQLiteStorage) ResolveDoc(ctx context.Context, docID int64) (*DocRef, error) {
	query := `
		SELECT d.id, d.path, c.name, d.title, d.content
		FROM documents d
		JOIN collections c ON d.collection_id = c.id
		WHERE d.id = ?
	`
	var ref DocRef
	var content string
	err := s.db.QueryRowContext(ctx, query, docID).Scan(
		&ref.DocID, &ref.Path, &ref.Collection, &ref.Title, &content,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ref.Snippet = (&Document{Content: content}).Snippet()
	return &ref, nil
}

// Status operations

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*IndexStatus, error) {
	status := &IndexStatus{
		Health: HealthStatus{
			DatabaseAccessible: true,
			FTSIndexBuilt:      true, // FTS index is created with migrations
		},
	}

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM collections`, &status.CollectionsCount},
		{`SELECT COUNT(*) FROM documents`, &status.DocumentsCount},
		{`SELECT COUNT(*) FROM embeddings`, &status.EmbeddingsCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	status.Health.EmbeddingsAvailable = status.EmbeddingsCount > 0

	// Page count * page size gives the database footprint
	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, `PRAGMA page_count`).Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, `PRAGMA page_size`).Scan(&pageSize); err == nil {
			status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}
