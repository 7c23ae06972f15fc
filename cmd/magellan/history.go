// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/magellan/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded init, load and delete runs",
	Long: `History lists the runs recorded in the local journal, newest first.
Use the export subcommand to dump the whole journal as YAML or JSON.`,
	RunE: runHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run journal to YAML or JSON on stdout",
	RunE:  runHistoryExport,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyExportCmd.Flags().String("format", journal.FormatYAML, "export format: yaml or json")

	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func openJournal() (*journal.Journal, error) {
	path := viper.GetString("journal")
	if path == "" {
		return nil, fmt.Errorf("run journal is disabled (--journal is empty)")
	}
	return journal.Open(path)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.List(cmd.Context(), limit)
	if err != nil {
		return err
	}

	if jsonOutput {
		if runs == nil {
			runs = []journal.Run{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	return formatHistory(cmd.OutOrStdout(), runs)
}

func formatHistory(w io.Writer, runs []journal.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tCOMMAND\tINDICES\tDOCS\tBATCHES\tDURATION\tSTATUS\tID")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.Started.Local().Format(time.DateTime),
			r.Command,
			strings.Join(r.Indices, ","),
			r.Documents,
			r.Batches,
			r.Duration().Round(time.Millisecond),
			r.Status,
			r.ID,
		)
	}
	return tw.Flush()
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	return j.Export(cmd.Context(), cmd.OutOrStdout(), format)
}
