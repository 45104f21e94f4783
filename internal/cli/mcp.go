package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaneholloman/qmd/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the index over the Model Context Protocol on stdio",
	Long: `Start an MCP server on stdio exposing the search, get_document,
list_collections and index_status tools. Intended to be launched by an
MCP client, not interactively.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return err
	}
	return server.Serve(cmd.Context())
}
