package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchTool returns the tool definition for search
func searchTool() mcp.Tool {
	return mcp.Tool{
		Name: "search",
		Description: "Search indexed document collections. The query may be plain text " +
			"or a structured multi-line query where lines are prefixed with lex:, vec: " +
			"or hyde: to pick the retrieval mode per line. Results from all modes are " +
			"fused into one ranked list.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type": "string",
					"description": "Search query. Plain text runs a hybrid search; lines starting " +
						"with lex:, vec: or hyde: run that mode with the rest of the line",
				},
				"collections": map[string]interface{}{
					"type":        "array",
					"description": "Restrict the search to these collection names (default: all)",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum normalized score threshold (0.0-1.0)",
					"minimum":     0.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getDocumentTool returns the tool definition for get_document
func getDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_document",
		Description: "Fetch the full content of an indexed document by its ID or by collection and path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"doc_id": map[string]interface{}{
					"type":        "integer",
					"description": "Document ID as returned by search results",
				},
				"collection": map[string]interface{}{
					"type":        "string",
					"description": "Collection name, used together with path when doc_id is absent",
				},
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Document path relative to the collection root",
				},
			},
		},
	}
}

// listCollectionsTool returns the tool definition for list_collections
func listCollectionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_collections",
		Description: "List all indexed document collections",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// indexStatusTool returns the tool definition for index_status
func indexStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_status",
		Description: "Report index statistics and health",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
