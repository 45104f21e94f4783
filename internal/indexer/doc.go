// Package indexer ingests collection files into the document index.
//
// An update run walks the collection root, matches files against the
// collection's glob mask, and reconciles the index with what it finds: new
// and changed files (detected by content hash) are upserted, vanished files
// are deleted, and documents without embeddings are embedded in batches.
// File ingestion is concurrent; one file failing to read is recorded and
// does not abort the run.
//
// Updates are serialized per Indexer. A second update while one is running
// returns ErrUpdateInProgress immediately.
package indexer
