// Package types provides shared type definitions for qmd.
//
// This package defines domain types used across multiple components,
// including structured sub-searches, search options, and fused results.
//
// # Core Types
//
// SubSearch represents one typed component of a structured query:
//
//	sub := types.SubSearch{
//	    Type:  types.SearchTypeLex,
//	    Query: `"rank fusion" -draft`,
//	}
//
// SearchOptions scope and bound a structured search:
//
//	opts := types.SearchOptions{
//	    Collections: []string{"notes"},
//	    Limit:       10,
//	    MinScore:    0.25,
//	}
//
// # Search Results
//
// SearchResult combines document metadata with fused relevance scoring:
//
//	result := &types.SearchResult{
//	    DocID:      123,
//	    Rank:       1,
//	    Score:      0.92,
//	    Path:       "notes/fusion.md",
//	    Collection: "notes",
//	}
//
// Scores are normalized to [0, 1], with higher values indicating better
// matches.
package types
