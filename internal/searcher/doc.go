// Package searcher orchestrates multi-modal document search.
//
// A structured search is an ordered list of sub-searches, each lexical
// (FTS5 with BM25 ranking) or semantic (embedding similarity; hyde entries
// carry hypothetical answer text but run through the same machinery). All
// sub-searches run concurrently, their ranked lists are merged with weighted
// Reciprocal Rank Fusion, and the fused list is resolved to document
// metadata.
//
// Validation is strict and happens before any index I/O: lexical queries
// must compile to a valid match expression and semantic queries must not
// contain boolean or exclusion syntax.
package searcher
