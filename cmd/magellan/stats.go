package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/search"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cluster or index statistics as JSON",
	Long: `Stats prints cluster-wide statistics. With --index, it prints the
statistics of the named indices instead.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringSlice("index", nil, "index to report on (repeatable)")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	names, _ := cmd.Flags().GetStringSlice("index")

	var indices []index.Index
	for _, name := range names {
		idx, err := index.Lookup(name)
		if err != nil {
			return err
		}
		indices = append(indices, idx)
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	raw, err := client.Stats(cmd.Context(), indices)
	if err != nil {
		return err
	}
	return search.FormatJSON(cmd.OutOrStdout(), raw)
}
