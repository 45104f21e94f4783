// Package mcp exposes the document index over the Model Context Protocol.
//
// The server speaks MCP on stdio and registers four tools: search runs a
// structured or plain query against the index, get_document fetches a full
// document, list_collections enumerates collections, and index_status reports
// statistics and health. Logging goes to stderr; stdout belongs to the
// protocol.
package mcp
