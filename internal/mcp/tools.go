package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/shaneholloman/qmd/internal/searcher"
	"github.com/shaneholloman/qmd/internal/storage"
	"github.com/shaneholloman/qmd/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams       = -32602 // Invalid method parameters
	ErrorCodeInternalError       = -32603 // Internal JSON-RPC error
	ErrorCodeAmbiguousQuery      = -32001 // More than one untyped query line
	ErrorCodeQuerySyntax         = -32002 // Query failed to compile or validate
	ErrorCodeEmbedderUnavailable = -32003 // Embedding backend cannot produce vectors
	ErrorCodeEmptyQuery          = -32004 // Query parameter is empty
	ErrorCodeNotFound            = -32005 // Requested document or collection does not exist
)

// handleSearch handles the search tool invocation
func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	queryText, ok := args["query"].(string)
	if !ok || queryText == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", types.DefaultLimit)
	if limit < 1 || limit > types.MaxLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", types.MaxLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	minScore := getFloatDefault(args, "min_score", 0)
	if minScore < 0 || minScore > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_score must be between 0.0 and 1.0", map[string]interface{}{
			"param": "min_score",
			"value": minScore,
		})
	}

	collections := getStringSlice(args, "collections")

	searches, err := searcher.PlanQuery(queryText)
	if err != nil {
		return nil, searchError(err)
	}

	opts := types.SearchOptions{
		Collections: collections,
		Limit:       limit,
		MinScore:    minScore,
	}

	results, err := s.searcher.StructuredSearch(ctx, searches, opts)
	if err != nil {
		return nil, searchError(err)
	}

	s.logger.Debug("search completed",
		zap.Int("sub_searches", len(searches)),
		zap.Int("results", len(results)))

	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		items[i] = map[string]interface{}{
			"doc_id":     r.DocID,
			"rank":       r.Rank,
			"score":      r.Score,
			"path":       r.Path,
			"collection": r.Collection,
			"title":      r.Title,
			"snippet":    r.Snippet,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"results": items,
		"count":   len(results),
	})), nil
}

// handleGetDocument handles the get_document tool invocation
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	doc, err := s.lookupDocument(ctx, args)
	if err != nil {
		return nil, err
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"doc_id":   doc.ID,
		"path":     doc.Path,
		"title":    doc.Title,
		"content":  doc.Content,
		"mod_time": doc.ModTime.Format("2006-01-02T15:04:05Z07:00"),
	})), nil
}

func (s *Server) lookupDocument(ctx context.Context, args map[string]interface{}) (*storage.Document, error) {
	if id, ok := argInt64(args, "doc_id"); ok {
		doc, err := s.storage.GetDocument(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeNotFound, "document not found", map[string]interface{}{
				"doc_id": id,
			})
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return doc, nil
	}

	collName, _ := args["collection"].(string)
	path, _ := args["path"].(string)
	if collName == "" || path == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "either doc_id or collection and path are required", nil)
	}

	coll, err := s.storage.GetCollection(ctx, collName)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "collection not found", map[string]interface{}{
			"collection": collName,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get collection", map[string]interface{}{
			"error": err.Error(),
		})
	}

	doc, err := s.storage.GetDocumentByPath(ctx, coll.ID, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotFound, "document not found", map[string]interface{}{
			"collection": collName,
			"path":       path,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get document", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return doc, nil
}

// handleListCollections handles the list_collections tool invocation
func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	colls, err := s.storage.ListCollections(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list collections", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(colls))
	for i, coll := range colls {
		items[i] = map[string]interface{}{
			"name": coll.Name,
			"path": coll.Path,
			"mask": coll.Mask,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"collections": items,
		"count":       len(items),
	})), nil
}

// handleIndexStatus handles the index_status tool invocation
func (s *Server) handleIndexStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"statistics": map[string]interface{}{
			"collections_count": status.CollectionsCount,
			"documents_count":   status.DocumentsCount,
			"embeddings_count":  status.EmbeddingsCount,
			"index_size_mb":     fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
			"fts_index_built":      status.Health.FTSIndexBuilt,
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// searchError maps search failures onto protocol error codes
func searchError(err error) error {
	switch {
	case errors.Is(err, types.ErrAmbiguousQuery):
		return newMCPError(ErrorCodeAmbiguousQuery, err.Error(), nil)
	case errors.Is(err, types.ErrQuerySyntax):
		return newMCPError(ErrorCodeQuerySyntax, err.Error(), nil)
	case errors.Is(err, types.ErrEmbedderUnavailable):
		return newMCPError(ErrorCodeEmbedderUnavailable, err.Error(), nil)
	default:
		return newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a number parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// argInt64 extracts an integer parameter, reporting whether it was present
func argInt64(args map[string]interface{}, key string) (int64, bool) {
	if val, ok := args[key].(float64); ok {
		return int64(val), true
	}
	if val, ok := args[key].(int); ok {
		return int64(val), true
	}
	if val, ok := args[key].(int64); ok {
		return val, true
	}
	return 0, false
}

// getStringSlice extracts a string array parameter
func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
