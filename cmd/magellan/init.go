// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/logging"
)

var initCmd = &cobra.Command{
	Use:   "init [index...]",
	Short: "Create the paper and metadata indices",
	Long: `Init creates each index from its settings and mappings file under
<config-root>/index/<version>/<name>.json. With no arguments every known
index is created.

An index that already exists is an error unless --skip-existing is set.
--update-mapping applies the mappings section to existing indices instead of
creating them; the cluster rejects changes to fields that already exist.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().Bool("skip-existing", false, "leave indices that already exist untouched")
	initCmd.Flags().Bool("update-mapping", false, "update the mappings of existing indices instead of creating them")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	updateMapping, _ := cmd.Flags().GetBool("update-mapping")
	root := viper.GetString("config-root")

	indices, err := index.LookupAll(args)
	if err != nil {
		return err
	}

	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	l := logging.FromContext(cmd.Context())
	ctx := cmd.Context()

	if updateMapping {
		return journaled(cmd, "init --update-mapping", fqns(indices), func() (int, int, error) {
			for _, idx := range indices {
				if err := client.UpdateMapping(ctx, root, idx); err != nil {
					return 0, 0, err
				}
			}
			l.Info("Mapping update complete", zap.Strings("indices", fqns(indices)))
			return 0, 0, nil
		})
	}

	return journaled(cmd, "init", fqns(indices), func() (int, int, error) {
		created, err := client.CreateIndices(ctx, root, indices, skipExisting)
		if err != nil {
			return 0, 0, err
		}
		l.Info("Cluster initialization complete", zap.Strings("created", fqns(created)))
		return 0, 0, nil
	})
}
