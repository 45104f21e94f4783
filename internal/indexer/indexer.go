package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/storage"
)

// ErrUpdateInProgress is returned when an update is requested while another
// update is still running against the same index.
var ErrUpdateInProgress = errors.New("index update already in progress")

// Indexer coordinates the ingestion pipeline: discover -> hash -> store -> embed
type Indexer struct {
	storage storage.Storage
	pool    *embedder.Pool
	workers int

	lock IndexLock
}

// Config contains configuration for an update run
type Config struct {
	Workers        int  // Number of concurrent workers (default: runtime.NumCPU())
	EmbedBatch     int  // Number of documents per embedding request (default: 32)
	SkipEmbeddings bool // Ingest documents only, leave embeddings for a later pass
}

// Statistics contains statistics about one update operation
type Statistics struct {
	FilesScanned      int
	DocsIndexed       int
	DocsSkipped       int
	DocsRemoved       int
	DocsFailed        int
	EmbeddingsCreated int
	Duration          time.Duration
	ErrorMessages     []string
}

// New creates a new Indexer instance
func New(store storage.Storage, pool *embedder.Pool) *Indexer {
	return &Indexer{
		storage: store,
		pool:    pool,
		workers: runtime.NumCPU(),
	}
}

// UpdateCollection synchronizes one collection with the files currently under
// its root: new and changed files are (re)ingested, files that disappeared
// are removed, and missing embeddings are generated unless skipped.
//
// A changed document loses its old embedding via the ingest upsert, so the
// embedding pass always sees it again.
func (idx *Indexer) UpdateCollection(ctx context.Context, name string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrUpdateInProgress
	}
	defer idx.lock.Release()

	return idx.updateLocked(ctx, name, normalizeConfig(config))
}

// UpdateAll runs UpdateCollection over every collection and merges the
// statistics.
func (idx *Indexer) UpdateAll(ctx context.Context, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrUpdateInProgress
	}
	defer idx.lock.Release()

	config = normalizeConfig(config)

	colls, err := idx.storage.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	total := &Statistics{ErrorMessages: []string{}}
	startTime := time.Now()

	for _, coll := range colls {
		stats, err := idx.updateLocked(ctx, coll.Name, config)
		if err != nil {
			return nil, fmt.Errorf("update collection %q: %w", coll.Name, err)
		}
		total.FilesScanned += stats.FilesScanned
		total.DocsIndexed += stats.DocsIndexed
		total.DocsSkipped += stats.DocsSkipped
		total.DocsRemoved += stats.DocsRemoved
		total.DocsFailed += stats.DocsFailed
		total.EmbeddingsCreated += stats.EmbeddingsCreated
		total.ErrorMessages = append(total.ErrorMessages, stats.ErrorMessages...)
	}

	total.Duration = time.Since(startTime)
	return total, nil
}

// EmbedMissing generates embeddings for documents that have none, across all
// collections. Useful after an update run with SkipEmbeddings.
func (idx *Indexer) EmbedMissing(ctx context.Context, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrUpdateInProgress
	}
	defer idx.lock.Release()

	config = normalizeConfig(config)

	colls, err := idx.storage.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	stats := &Statistics{ErrorMessages: []string{}}
	startTime := time.Now()

	for _, coll := range colls {
		created, err := idx.embedCollection(ctx, coll.ID, config)
		if err != nil {
			return nil, err
		}
		stats.EmbeddingsCreated += created
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

func normalizeConfig(config *Config) *Config {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.EmbedBatch <= 0 {
		config.EmbedBatch = 32
	}
	return config
}

func (idx *Indexer) updateLocked(ctx context.Context, name string, config *Config) (*Statistics, error) {
	startTime := time.Now()
	stats := &Statistics{ErrorMessages: []string{}}

	coll, err := idx.storage.GetCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get collection %q: %w", name, err)
	}

	files, err := discoverFiles(coll.Path, coll.Mask)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	stats.FilesScanned = len(files)

	seen, err := idx.ingestFiles(ctx, coll, files, config, stats)
	if err != nil {
		return nil, err
	}

	if err := idx.removeVanished(ctx, coll.ID, seen, stats); err != nil {
		return nil, err
	}

	if !config.SkipEmbeddings {
		created, err := idx.embedCollection(ctx, coll.ID, config)
		if err != nil {
			return nil, err
		}
		stats.EmbeddingsCreated = created
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// discoverFiles walks the collection root and returns paths matching the
// collection's glob mask, relative to the root. Hidden directories are
// skipped.
func discoverFiles(rootPath, mask string) ([]string, error) {
	var files []string

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if mask != "" {
			matched, err := filepath.Match(mask, info.Name())
			if err != nil {
				return fmt.Errorf("invalid mask %q: %w", mask, err)
			}
			if !matched {
				return nil
			}
		}

		rel, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})

	return files, err
}

// ingestFiles upserts new and changed files concurrently. Returns the set of
// relative paths present on disk.
func (idx *Indexer) ingestFiles(ctx context.Context, coll *storage.Collection, files []string, config *Config, stats *Statistics) (map[string]bool, error) {
	var (
		indexed int32
		skipped int32
		failed  int32
		mu      sync.Mutex // Protect stats.ErrorMessages
	)

	seen := make(map[string]bool, len(files))
	for _, rel := range files {
		seen[rel] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(config.Workers)

	for _, rel := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			err := idx.ingestFile(gctx, coll, rel, &indexed, &skipped)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				mu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", rel, err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.DocsIndexed = int(indexed)
	stats.DocsSkipped = int(skipped)
	stats.DocsFailed = int(failed)

	return seen, nil
}

// ingestFile hashes one file and upserts it if new or changed.
func (idx *Indexer) ingestFile(ctx context.Context, coll *storage.Collection, relPath string, indexed, skipped *int32) error {
	absPath := filepath.Join(coll.Path, relPath)

	hash, modTime, sizeBytes, err := computeFileHash(absPath)
	if err != nil {
		return err
	}

	existing, err := idx.storage.GetDocumentByPath(ctx, coll.ID, relPath)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	if existing != nil && existing.ContentHash == hash {
		atomic.AddInt32(skipped, 1)
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return err
	}

	doc := &storage.Document{
		CollectionID: coll.ID,
		Path:         relPath,
		Title:        extractTitle(relPath, string(content)),
		Content:      string(content),
		ContentHash:  hash,
		ModTime:      modTime,
		SizeBytes:    sizeBytes,
	}
	if err := idx.storage.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	atomic.AddInt32(indexed, 1)
	return nil
}

// removeVanished deletes documents whose files no longer exist on disk.
func (idx *Indexer) removeVanished(ctx context.Context, collectionID int64, seen map[string]bool, stats *Statistics) error {
	docs, err := idx.storage.ListDocuments(ctx, collectionID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	for _, doc := range docs {
		if seen[doc.Path] {
			continue
		}
		if err := idx.storage.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete document %q: %w", doc.Path, err)
		}
		stats.DocsRemoved++
	}

	return nil
}

// embedCollection generates embeddings for every document in the collection
// that lacks one, in batches.
func (idx *Indexer) embedCollection(ctx context.Context, collectionID int64, config *Config) (int, error) {
	docs, err := idx.storage.ListDocumentsMissingEmbeddings(ctx, collectionID)
	if err != nil {
		return 0, fmt.Errorf("list documents missing embeddings: %w", err)
	}
	if len(docs) == 0 {
		return 0, nil
	}

	emb, release, err := idx.pool.Acquire()
	if err != nil {
		return 0, fmt.Errorf("acquire embedder: %w", err)
	}
	defer release()

	created := 0
	for start := 0; start < len(docs); start += config.EmbedBatch {
		end := start + config.EmbedBatch
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = embeddingText(doc)
		}

		resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return created, fmt.Errorf("generate embeddings: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return created, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), len(batch))
		}

		for i, doc := range batch {
			vec := resp.Embeddings[i]
			err := idx.storage.UpsertEmbedding(ctx, &storage.Embedding{
				DocID:     doc.ID,
				Vector:    storage.SerializeVector(vec.Vector),
				Dimension: vec.Dimension,
				Provider:  resp.Provider,
				Model:     resp.Model,
			})
			if err != nil {
				return created, fmt.Errorf("store embedding for %q: %w", doc.Path, err)
			}
			created++
		}
	}

	return created, nil
}

// embeddingText combines title and body so short documents still embed with
// useful signal.
func embeddingText(doc *storage.Document) string {
	if doc.Title == "" || strings.HasPrefix(doc.Content, "# "+doc.Title) {
		return doc.Content
	}
	return doc.Title + "\n\n" + doc.Content
}

// extractTitle takes the first markdown heading, falling back to the file
// name without its extension.
func extractTitle(relPath, content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, "# "); ok {
			if title := strings.TrimSpace(after); title != "" {
				return title
			}
		}
	}

	base := filepath.Base(relPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// computeFileHash computes the SHA-256 hash of a file
func computeFileHash(filePath string) ([32]byte, time.Time, int64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return [32]byte{}, time.Time{}, 0, err
	}

	var result [32]byte
	copy(result[:], hash.Sum(nil))

	return result, info.ModTime(), info.Size(), nil
}
