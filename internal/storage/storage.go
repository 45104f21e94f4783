package storage

import (
	"context"
	"time"
)

// Storage defines the interface for persisting and querying indexed documents
type Storage interface {
	// Collection operations
	CreateCollection(ctx context.Context, coll *Collection) error
	GetCollection(ctx context.Context, name string) (*Collection, error)
	ListCollections(ctx context.Context) ([]*Collection, error)
	DeleteCollection(ctx context.Context, name string) error

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, docID int64) (*Document, error)
	GetDocumentByPath(ctx context.Context, collectionID int64, path string) (*Document, error)
	ListDocuments(ctx context.Context, collectionID int64) ([]*Document, error)
	ListDocumentsMissingEmbeddings(ctx context.Context, collectionID int64) ([]*Document, error)
	DeleteDocument(ctx context.Context, docID int64) error

	// Embedding operations
	UpsertEmbedding(ctx context.Context, emb *Embedding) error
	GetEmbedding(ctx context.Context, docID int64) (*Embedding, error)

	// Search operations. The match argument to SearchLexical must be a
	// compiled FTS5 expression; collections narrows the scope (empty = all).
	SearchLexical(ctx context.Context, match string, collections []string, limit int) ([]LexResult, error)
	SearchVector(ctx context.Context, vector []float32, collections []string, limit int) ([]VectorResult, error)

	// Result resolution
	ResolveDoc(ctx context.Context, docID int64) (*DocRef, error)

	// Status operations
	GetStatus(ctx context.Context) (*IndexStatus, error)

	// Database operations
	Close() error
}

// Collection is a named partition of the document corpus
type Collection struct {
	ID        int64
	Name      string
	Path      string // Root directory the collection is ingested from
	Mask      string // Glob mask for files within Path (e.g. "*.md")
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Document is one indexed text document belonging to a single collection
type Document struct {
	ID           int64
	CollectionID int64
	Path         string // Relative to the collection root
	Title        string
	Content      string
	ContentHash  [32]byte
	ModTime      time.Time
	SizeBytes    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Embedding is the vector representation of a document
type Embedding struct {
	ID        int64
	DocID     int64
	Vector    []byte // Serialized little-endian float32 array
	Dimension int
	Provider  string
	Model     string
	CreatedAt time.Time
}

// LexResult is a raw hit from lexical (BM25) search. Score is normalized to
// a positive value where higher is better.
type LexResult struct {
	DocID     int64
	BM25Score float64
}

// VectorResult is a raw hit from vector similarity search
type VectorResult struct {
	DocID      int64
	Similarity float64
}

// DocRef carries the resolved metadata for a fused result
type DocRef struct {
	DocID      int64
	Path       string
	Collection string
	Title      string
	Snippet    string
}

// IndexStatus contains statistics about the index
type IndexStatus struct {
	CollectionsCount int
	DocumentsCount   int
	EmbeddingsCount  int
	IndexSizeMB      float64
	Health           HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
	FTSIndexBuilt       bool
}

// SnippetLen is the number of leading content runes used for result snippets.
const SnippetLen = 240

// Snippet returns the document's leading content, truncated for display.
func (d *Document) Snippet() string {
	runes := []rune(d.Content)
	if len(runes) <= SnippetLen {
		return d.Content
	}
	return string(runes[:SnippetLen]) + "…"
}
