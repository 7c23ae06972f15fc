package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/logging"
	"github.com/pdiddy/magellan/internal/search"
	"github.com/pdiddy/magellan/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Run a query-string search",
	Long: `Search runs a query-string query (for example
'metadata.title:coronavirus AND collection:biorxiv_medrxiv') against the
paper index and prints the raw response as one line of JSON.

--pretty prints each hit's ID, title, authors and abstract instead.
--save writes the query and a summary of each hit to a YAML file.
--load prints the hits of a saved file without querying the cluster.`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntP("size", "n", 10, "maximum number of hits to return")
	searchCmd.Flags().Bool("pretty", false, "print hits in a human-readable form")
	searchCmd.Flags().String("index", index.Paper.Name, "index to search (paper or metadata)")
	searchCmd.Flags().String("save", "", "save the query and its hits to this YAML file")
	searchCmd.Flags().String("load", "", "print the hits saved in this YAML file instead of searching")
	searchCmd.MarkFlagsMutuallyExclusive("save", "load")

	rootCmd.AddCommand(searchCmd)
}

func searchConfig(cmd *cobra.Command) types.SearchConfig {
	size, _ := cmd.Flags().GetInt("size")
	pretty, _ := cmd.Flags().GetBool("pretty")
	return types.SearchConfig{Size: size, Pretty: pretty}
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := searchConfig(cmd)
	indexName, _ := cmd.Flags().GetString("index")
	savePath, _ := cmd.Flags().GetString("save")
	loadPath, _ := cmd.Flags().GetString("load")
	query := strings.Join(args, " ")

	if loadPath != "" {
		if len(args) > 0 {
			return fmt.Errorf("a query cannot be combined with --load")
		}
		return printSaved(cmd, loadPath)
	}
	if query == "" {
		return fmt.Errorf("search needs a QUERY or --load FILE")
	}

	idx, err := index.Lookup(indexName)
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	raw, err := client.Search(cmd.Context(), idx, query, cfg.Size)
	if err != nil {
		return err
	}

	if !cfg.Pretty && savePath == "" {
		return search.FormatJSON(cmd.OutOrStdout(), raw)
	}

	resp, err := search.Parse(raw)
	if err != nil {
		return err
	}
	hits, err := resp.Summaries()
	if err != nil {
		return err
	}

	if savePath != "" {
		params := search.QueryParams{Index: idx.FQN(), Query: query, Size: cfg.Size}
		if err := search.WriteQueryFile(savePath, params, resp, hits); err != nil {
			return err
		}
		logging.FromContext(cmd.Context()).Info("Saved search",
			zap.String("path", savePath),
			zap.Int("hits", len(hits)),
		)
	}

	if cfg.Pretty {
		return search.FormatPretty(cmd.OutOrStdout(), hits)
	}
	if err := search.FormatJSON(cmd.OutOrStdout(), raw); err != nil {
		return fmt.Errorf("writing search response: %w", err)
	}
	return nil
}

// printSaved prints the hits recorded in a query file.
func printSaved(cmd *cobra.Command, path string) error {
	qf, err := search.ReadQueryFile(path)
	if err != nil {
		return err
	}
	logging.FromContext(cmd.Context()).Info("Loaded saved search",
		zap.String("path", path),
		zap.String("index", qf.Query.Index),
		zap.String("query", qf.Query.Query),
		zap.Int("total", qf.Summary.Total),
		zap.Time("searched", qf.Summary.Timestamp),
	)
	return search.FormatPretty(cmd.OutOrStdout(), qf.Results)
}
