package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/storage"
	"github.com/shaneholloman/qmd/pkg/types"
)

func newTestServer(t *testing.T) (*Server, *storage.SQLiteStorage) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		return embedder.NewLocalProvider(nil)
	})
	t.Cleanup(func() { _ = pool.Close() })

	return NewServerWith(store, pool, nil), store
}

func seedCorpus(t *testing.T, store *storage.SQLiteStorage) *storage.Document {
	t.Helper()
	ctx := context.Background()

	coll := &storage.Collection{Name: "notes", Path: "/corpus/notes", Mask: "*.md"}
	require.NoError(t, store.CreateCollection(ctx, coll))

	doc := &storage.Document{
		CollectionID: coll.ID,
		Path:         "fusion.md",
		Title:        "Rank fusion",
		Content:      "Reciprocal rank fusion combines ranked lists from multiple retrieval modes.",
	}
	require.NoError(t, store.UpsertDocument(ctx, doc))
	return doc
}

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestSearchToolLexical(t *testing.T) {
	server, store := newTestServer(t)
	seedCorpus(t, store)

	result, err := server.handleSearch(context.Background(), toolRequest("search", map[string]interface{}{
		"query": "lex: rank fusion",
	}))
	require.NoError(t, err)

	var payload struct {
		Results []struct {
			Path       string  `json:"path"`
			Collection string  `json:"collection"`
			Score      float64 `json:"score"`
		} `json:"results"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &payload))

	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "fusion.md", payload.Results[0].Path)
	assert.Equal(t, "notes", payload.Results[0].Collection)
	assert.InDelta(t, 1.0, payload.Results[0].Score, 1e-9)
}

func TestSearchToolRejectsEmptyQuery(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleSearch(context.Background(), toolRequest("search", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestSearchToolRejectsAmbiguousQuery(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleSearch(context.Background(), toolRequest("search", map[string]interface{}{
		"query": "first plain line\nsecond plain line",
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeAmbiguousQuery, mcpErr.Code)
}

func TestSearchToolRejectsBadSyntax(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleSearch(context.Background(), toolRequest("search", map[string]interface{}{
		"query": `lex: "unterminated phrase`,
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeQuerySyntax, mcpErr.Code)
}

func TestSearchToolRejectsBadLimit(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleSearch(context.Background(), toolRequest("search", map[string]interface{}{
		"query": "anything",
		"limit": float64(types.MaxLimit + 1),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestGetDocumentByID(t *testing.T) {
	server, store := newTestServer(t)
	doc := seedCorpus(t, store)

	result, err := server.handleGetDocument(context.Background(), toolRequest("get_document", map[string]interface{}{
		"doc_id": float64(doc.ID),
	}))
	require.NoError(t, err)

	var payload struct {
		Path    string `json:"path"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &payload))
	assert.Equal(t, "fusion.md", payload.Path)
	assert.Equal(t, "Rank fusion", payload.Title)
	assert.Contains(t, payload.Content, "Reciprocal rank fusion")
}

func TestGetDocumentByPath(t *testing.T) {
	server, store := newTestServer(t)
	seedCorpus(t, store)

	result, err := server.handleGetDocument(context.Background(), toolRequest("get_document", map[string]interface{}{
		"collection": "notes",
		"path":       "fusion.md",
	}))
	require.NoError(t, err)
	assert.Contains(t, textContent(t, result), "fusion.md")
}

func TestGetDocumentNotFound(t *testing.T) {
	server, store := newTestServer(t)
	seedCorpus(t, store)

	_, err := server.handleGetDocument(context.Background(), toolRequest("get_document", map[string]interface{}{
		"doc_id": float64(99999),
	}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeNotFound, mcpErr.Code)
}

func TestGetDocumentRequiresIdentifier(t *testing.T) {
	server, _ := newTestServer(t)

	_, err := server.handleGetDocument(context.Background(), toolRequest("get_document", map[string]interface{}{}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestListCollections(t *testing.T) {
	server, store := newTestServer(t)
	seedCorpus(t, store)

	result, err := server.handleListCollections(context.Background(), toolRequest("list_collections", map[string]interface{}{}))
	require.NoError(t, err)

	var payload struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &payload))
	require.Equal(t, 1, payload.Count)
	assert.Equal(t, "notes", payload.Collections[0].Name)
}

func TestIndexStatus(t *testing.T) {
	server, store := newTestServer(t)
	seedCorpus(t, store)

	result, err := server.handleIndexStatus(context.Background(), toolRequest("index_status", map[string]interface{}{}))
	require.NoError(t, err)

	var payload struct {
		Statistics struct {
			CollectionsCount int `json:"collections_count"`
			DocumentsCount   int `json:"documents_count"`
		} `json:"statistics"`
		Health struct {
			DatabaseAccessible bool `json:"database_accessible"`
		} `json:"health"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &payload))
	assert.Equal(t, 1, payload.Statistics.CollectionsCount)
	assert.Equal(t, 1, payload.Statistics.DocumentsCount)
	assert.True(t, payload.Health.DatabaseAccessible)
}
