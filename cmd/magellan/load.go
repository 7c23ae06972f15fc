// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/loader"
	"github.com/pdiddy/magellan/internal/logging"
	"github.com/pdiddy/magellan/internal/metrics"
	"github.com/pdiddy/magellan/pkg/types"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk load papers and metadata into the cluster",
	Long: `Load walks --data for .json paper files and indexes them into the paper
index, tagging each with the name of its directory as the collection. The
metadata CSV named with --metadata is indexed into the metadata index.

Documents are sent in bulk requests of --batch-size. The first error stops
the load; batches already sent stay indexed.`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringP("data", "d", "", "directory containing paper JSON files")
	loadCmd.Flags().StringP("metadata", "m", "", "path to a metadata CSV file")
	loadCmd.Flags().IntP("batch-size", "b", loader.DefaultBatchSize, "documents per bulk request")
	loadCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address during the load (e.g. :9102)")
	loadCmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file when the load ends")

	rootCmd.AddCommand(loadCmd)
}

func loadConfig(cmd *cobra.Command) (types.LoadConfig, error) {
	cfg := types.LoadConfig{}
	cfg.DataDir, _ = cmd.Flags().GetString("data")
	cfg.MetadataPath, _ = cmd.Flags().GetString("metadata")
	cfg.BatchSize, _ = cmd.Flags().GetInt("batch-size")

	if cfg.DataDir == "" && cfg.MetadataPath == "" {
		return cfg, fmt.Errorf("nothing to load: provide --data, --metadata or both")
	}
	if cfg.BatchSize < 1 {
		return cfg, fmt.Errorf("batch size must be at least 1, got %d", cfg.BatchSize)
	}
	return cfg, nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	metricsFile, _ := cmd.Flags().GetString("metrics-file")

	client, err := newClient(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	l := logging.FromContext(ctx)

	reg := prometheus.NewRegistry()
	if metricsAddr != "" {
		if _, err := metrics.Serve(ctx, metricsAddr, reg, l); err != nil {
			return err
		}
	}

	ld := &loader.Loader{
		Indexer:   client,
		BatchSize: cfg.BatchSize,
		Metrics:   metrics.New(reg),
		Logger:    l,
	}

	var targets []string
	if cfg.DataDir != "" {
		targets = append(targets, index.Paper.FQN())
	}
	if cfg.MetadataPath != "" {
		targets = append(targets, index.Metadata.FQN())
	}

	err = journaled(cmd, "load", targets, func() (int, int, error) {
		var docs, batches int
		if cfg.DataDir != "" {
			sum, err := ld.LoadPapers(ctx, cfg.DataDir)
			docs += sum.Documents
			batches += sum.Batches
			if err != nil {
				return docs, batches, err
			}
			l.Info(fmt.Sprintf("Loaded %d papers", sum.Documents),
				zap.Int("batches", sum.Batches),
				zap.Duration("duration", sum.Duration),
			)
		}
		if cfg.MetadataPath != "" {
			sum, err := ld.LoadMetadata(ctx, cfg.MetadataPath)
			docs += sum.Documents
			batches += sum.Batches
			if err != nil {
				return docs, batches, err
			}
			l.Info(fmt.Sprintf("Loaded %d metadata entries", sum.Documents),
				zap.Int("batches", sum.Batches),
				zap.Duration("duration", sum.Duration),
			)
		}
		return docs, batches, nil
	})

	if metricsFile != "" {
		if werr := metrics.WriteTextfile(metricsFile, reg); werr != nil {
			if err != nil {
				l.Warn("Writing metrics failed", zap.Error(werr))
				return err
			}
			return werr
		}
	}
	return err
}
