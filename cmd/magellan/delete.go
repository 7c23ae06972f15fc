// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/logging"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [index...]",
	Short: "Delete indices and every document in them",
	Long: `Delete removes the named indices from the cluster. With no arguments every
known index is deleted. Names may be short (paper) or fully qualified
(paper_v1).`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().Bool("ignore-missing", false, "do not fail when an index does not exist")

	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	ignoreMissing, _ := cmd.Flags().GetBool("ignore-missing")

	indices, err := index.LookupAll(args)
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	return journaled(cmd, "delete", fqns(indices), func() (int, int, error) {
		if err := client.DeleteIndices(cmd.Context(), indices, ignoreMissing); err != nil {
			return 0, 0, err
		}
		logging.FromContext(cmd.Context()).Info("Deleted indices", zap.Strings("indices", fqns(indices)))
		return 0, 0, nil
	})
}
