package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/shaneholloman/qmd/internal/config"
	"github.com/shaneholloman/qmd/internal/embedder"
	"github.com/shaneholloman/qmd/internal/indexer"
	"github.com/shaneholloman/qmd/internal/searcher"
	"github.com/shaneholloman/qmd/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "qmd"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	pool     *embedder.Pool
	searcher *searcher.Searcher
	indexer  *indexer.Indexer
	logger   *zap.Logger
}

// NewServer creates an MCP server with storage and embedder built from the
// configuration. Stdout carries the protocol, so all logging goes through
// the provided stderr logger.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if err := cfg.EnsureDBDir(); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	pool := embedder.NewPool(func() (embedder.Embedder, error) {
		if cfg.Embedding.Provider == "" {
			return embedder.NewFromEnv()
		}
		return embedder.New(embedder.Config{
			Provider: cfg.Embedding.Provider,
			Model:    cfg.Embedding.Model,
		})
	})

	return NewServerWith(store, pool, logger), nil
}

// NewServerWith wires a server from existing dependencies.
func NewServerWith(store storage.Storage, pool *embedder.Pool, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		storage:  store,
		pool:     pool,
		searcher: searcher.NewSearcher(store, pool),
		indexer:  indexer.New(store, pool),
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		_ = s.pool.Close()
		_ = s.storage.Close()
	}()

	s.logger.Info("mcp server starting",
		zap.String("name", ServerName),
		zap.String("version", ServerVersion))

	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchTool(), s.handleSearch)
	s.mcp.AddTool(getDocumentTool(), s.handleGetDocument)
	s.mcp.AddTool(listCollectionsTool(), s.handleListCollections)
	s.mcp.AddTool(indexStatusTool(), s.handleIndexStatus)
}
