package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shaneholloman/qmd/internal/indexer"
)

var (
	updateWorkers        int
	updateSkipEmbeddings bool
)

var updateCmd = &cobra.Command{
	Use:   "update [collection]",
	Short: "Re-index collections from disk",
	Long: `Synchronize the index with the files on disk: new and changed files are
(re)ingested, vanished files are removed, and missing embeddings are
generated. Without an argument every collection is updated.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate missing embeddings",
	Long: `Generate embeddings for documents that have none, across all
collections. Useful after 'qmd update --skip-embeddings' or when
switching embedding providers.`,
	Args: cobra.NoArgs,
	RunE: runEmbed,
}

func init() {
	updateCmd.Flags().IntVar(&updateWorkers, "workers", 0, "concurrent file workers (default: CPU count)")
	updateCmd.Flags().BoolVar(&updateSkipEmbeddings, "skip-embeddings", false, "ingest documents only, embed later")

	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(embedCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	idx := indexer.New(a.store, a.pool)
	cfg := &indexer.Config{
		Workers:        updateWorkers,
		SkipEmbeddings: updateSkipEmbeddings,
	}

	var stats *indexer.Statistics
	if len(args) == 1 {
		stats, err = idx.UpdateCollection(cmd.Context(), args[0], cfg)
	} else {
		stats, err = idx.UpdateAll(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}

	a.logger.Info("update finished",
		zap.Int("scanned", stats.FilesScanned),
		zap.Int("indexed", stats.DocsIndexed),
		zap.Int("removed", stats.DocsRemoved),
		zap.Duration("duration", stats.Duration))

	fmt.Printf("Scanned %d files: %d indexed, %d unchanged, %d removed, %d failed.\n",
		stats.FilesScanned, stats.DocsIndexed, stats.DocsSkipped, stats.DocsRemoved, stats.DocsFailed)
	if !updateSkipEmbeddings {
		fmt.Printf("Embeddings created: %d.\n", stats.EmbeddingsCreated)
	}
	for _, msg := range stats.ErrorMessages {
		fmt.Printf("  warning: %s\n", msg)
	}
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := indexer.New(a.store, a.pool).EmbedMissing(cmd.Context(), nil)
	if err != nil {
		return err
	}

	fmt.Printf("Embeddings created: %d.\n", stats.EmbeddingsCreated)
	return nil
}
