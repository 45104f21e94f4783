package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics and health",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	status, err := a.store.GetStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("get status: %w", err)
	}

	fmt.Printf("Database:    %s\n", a.cfg.DBPath)
	fmt.Printf("Collections: %d\n", status.CollectionsCount)
	fmt.Printf("Documents:   %d\n", status.DocumentsCount)
	fmt.Printf("Embeddings:  %d\n", status.EmbeddingsCount)
	fmt.Printf("Index size:  %.2f MB\n", status.IndexSizeMB)
	fmt.Printf("Health:      database=%s embeddings=%s fts=%s\n",
		okString(status.Health.DatabaseAccessible),
		okString(status.Health.EmbeddingsAvailable),
		okString(status.Health.FTSIndexBuilt))

	if status.DocumentsCount > status.EmbeddingsCount {
		fmt.Printf("\n%d documents lack embeddings. Run 'qmd embed' to generate them.\n",
			status.DocumentsCount-status.EmbeddingsCount)
	}
	return nil
}

func okString(ok bool) string {
	if ok {
		return "ok"
	}
	return "missing"
}
