package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shaneholloman/qmd/internal/storage"
)

var collectionMask string

var collectionCmd = &cobra.Command{
	Use:   "collection",
	Short: "Manage document collections",
}

var collectionAddCmd = &cobra.Command{
	Use:   "add <name> <path>",
	Short: "Register a directory as a collection",
	Long: `Register a directory as a named collection. Files matching the glob
mask become searchable after the next update run.

Examples:
  qmd collection add notes ~/notes
  qmd collection add docs ./docs --mask '*.markdown'`,
	Args: cobra.ExactArgs(2),
	RunE: runCollectionAdd,
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered collections",
	Args:  cobra.NoArgs,
	RunE:  runCollectionList,
}

var collectionRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a collection and its indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionRemove,
}

func init() {
	collectionAddCmd.Flags().StringVar(&collectionMask, "mask", "*.md", "glob mask for files within the collection root")

	collectionCmd.AddCommand(collectionAddCmd)
	collectionCmd.AddCommand(collectionListCmd)
	collectionCmd.AddCommand(collectionRemoveCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	name, path := args[0], args[1]

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path %s: %w", path, err)
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	coll := &storage.Collection{Name: name, Path: absPath, Mask: collectionMask}
	if err := a.store.CreateCollection(cmd.Context(), coll); err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}

	a.logger.Info("collection created",
		zap.String("name", name),
		zap.String("path", absPath),
		zap.String("mask", collectionMask))

	fmt.Printf("Added collection %q (%s, mask %s). Run 'qmd update %s' to index it.\n",
		name, absPath, collectionMask, name)
	return nil
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	colls, err := a.store.ListCollections(cmd.Context())
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	if len(colls) == 0 {
		fmt.Println("No collections. Add one with 'qmd collection add <name> <path>'.")
		return nil
	}

	for _, coll := range colls {
		docs, err := a.store.ListDocuments(cmd.Context(), coll.ID)
		if err != nil {
			return fmt.Errorf("list documents for %q: %w", coll.Name, err)
		}
		fmt.Printf("%-20s %4d docs  %s (%s)\n", coll.Name, len(docs), coll.Path, coll.Mask)
	}
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteCollection(cmd.Context(), name); err != nil {
		return fmt.Errorf("remove collection %q: %w", name, err)
	}

	fmt.Printf("Removed collection %q.\n", name)
	return nil
}
