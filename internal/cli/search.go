package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaneholloman/qmd/internal/searcher"
	"github.com/shaneholloman/qmd/pkg/types"
)

var (
	searchCollections []string
	searchLimit       int
	searchMinScore    float64
	searchJSON        bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Lexical search across collections",
	Long: `Search indexed documents with FTS5/BM25 keyword matching.

The query grammar supports bare prefix terms, "quoted phrases",
-exclusions and OR groups.

Examples:
  qmd search "rank fusion"
  qmd search 'config OR settings' -c docs
  qmd search 'deployment -draft' --limit 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingleMode(cmd.Context(), types.SearchTypeLex, args[0])
	},
}

var vsearchCmd = &cobra.Command{
	Use:   "vsearch <query>",
	Short: "Semantic search across collections",
	Long: `Search indexed documents by embedding similarity. The query is plain
prose; boolean operators and negation are not supported in this mode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSingleMode(cmd.Context(), types.SearchTypeVec, args[0])
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <line>...",
	Short: "Structured multi-modal search",
	Long: `Run a structured query where each line picks its retrieval mode with a
lex:, vec: or hyde: prefix. Results from all modes are fused into one
ranked list, with the first line's results weighted highest. Each
positional argument is one query line; a single "-" reads the whole
query from stdin.

A single plain line without a prefix falls back to hybrid search.

Examples:
  qmd query 'lex: rank fusion' 'vec: how results are combined'
  qmd query 'vec: embedding similarity' 'hyde: Cosine distance compares vectors.'
  echo 'lex: fusion' | qmd query -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	for _, cmd := range []*cobra.Command{searchCmd, vsearchCmd, queryCmd} {
		cmd.Flags().StringSliceVarP(&searchCollections, "collection", "c", nil, "restrict to collection (repeatable)")
		cmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results")
		cmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "minimum normalized score (0.0-1.0)")
		cmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	}

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(vsearchCmd)
	rootCmd.AddCommand(queryCmd)
}

func runSingleMode(ctx context.Context, mode types.SearchType, queryText string) error {
	return runSearches(ctx, []types.SubSearch{{Type: mode, Query: queryText}})
}

func runQuery(cmd *cobra.Command, args []string) error {
	queryText, err := assembleQuery(args)
	if err != nil {
		return err
	}

	searches, err := searcher.PlanQuery(queryText)
	if err != nil {
		return err
	}
	return runSearches(cmd.Context(), searches)
}

// assembleQuery joins positional arguments into one multi-line query, or
// reads it from stdin when the sole argument is "-".
func assembleQuery(args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := os.ReadFile("/dev/stdin")
		if err != nil {
			return "", fmt.Errorf("read query from stdin: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, "\n"), nil
}

func runSearches(ctx context.Context, searches []types.SubSearch) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts := types.SearchOptions{
		Collections: searchCollections,
		Limit:       searchLimit,
		MinScore:    searchMinScore,
	}
	if opts.Limit <= 0 {
		opts.Limit = a.cfg.DefaultLimit
	}

	results, err := searcher.NewSearcher(a.store, a.pool).StructuredSearch(ctx, searches, opts)
	if err != nil {
		return err
	}

	if searchJSON {
		return printResultsJSON(results)
	}
	printResults(results)
	return nil
}

func printResults(results []types.SearchResult) {
	if len(results) == 0 {
		fmt.Println("No results found.")
		return
	}

	for _, r := range results {
		fmt.Printf("%2d. [%s] %s  (%.3f)\n", r.Rank, r.Collection, r.Path, r.Score)
		if r.Title != "" {
			fmt.Printf("    %s\n", r.Title)
		}
		if r.Snippet != "" {
			fmt.Printf("    %s\n", firstLine(r.Snippet))
		}
	}
}

type resultJSON struct {
	DocID      int64   `json:"doc_id"`
	Rank       int     `json:"rank"`
	Score      float64 `json:"score"`
	Path       string  `json:"path"`
	Collection string  `json:"collection"`
	Title      string  `json:"title,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
}

func printResultsJSON(results []types.SearchResult) error {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			DocID:      r.DocID,
			Rank:       r.Rank,
			Score:      r.Score,
			Path:       r.Path,
			Collection: r.Collection,
			Title:      r.Title,
			Snippet:    r.Snippet,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"results": out,
		"count":   len(out),
	})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
