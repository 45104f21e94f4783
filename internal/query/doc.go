// Package query implements structured query parsing, per-mode validation,
// and compilation of the lexical grammar into SQLite FTS5 expressions.
//
// A structured query is a multi-line string where each line carries a type
// prefix selecting a retrieval mode:
//
//	lex: "rank fusion" -draft
//	vec: how are ranked lists combined?
//	hyde: Ranked lists are merged with reciprocal rank fusion.
//
// All functions in this package are pure and perform no I/O.
package query
