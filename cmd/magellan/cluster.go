// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/cluster"
	"github.com/pdiddy/magellan/internal/index"
	"github.com/pdiddy/magellan/internal/journal"
	"github.com/pdiddy/magellan/internal/logging"
	"github.com/pdiddy/magellan/pkg/types"
)

// clusterConfig assembles the connection settings from flags, environment,
// config file and the loaded credentials.
func clusterConfig() types.ClusterConfig {
	return types.ClusterConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "magellan/" + version,
		},
		Host:       viper.GetString("host"),
		Port:       viper.GetInt("port"),
		Secure:     viper.GetBool("secure"),
		CACertPath: viper.GetString("ca-cert"),
		Username:   creds.Username,
		Password:   creds.Password,
	}
}

func newClient(cmd *cobra.Command) (*cluster.Client, error) {
	return cluster.New(clusterConfig(), logging.FromContext(cmd.Context()))
}

func fqns(indices []index.Index) []string {
	names := make([]string, len(indices))
	for i, idx := range indices {
		names[i] = idx.FQN()
	}
	return names
}

// journaled runs fn and records the outcome in the run journal. Journal
// failures are logged and never change the command's result.
func journaled(cmd *cobra.Command, command string, indices []string, fn func() (documents, batches int, err error)) error {
	l := logging.FromContext(cmd.Context())

	run := journal.NewRun(command, indices)
	documents, batches, err := fn()
	run.Finish(documents, batches, err)

	path := viper.GetString("journal")
	if path == "" {
		return err
	}

	j, jerr := journal.Open(path)
	if jerr != nil {
		l.Warn("Run journal unavailable", zap.Error(jerr))
		return err
	}
	defer j.Close()

	if jerr := j.Record(context.WithoutCancel(cmd.Context()), run); jerr != nil {
		l.Warn("Recording run failed", zap.String("run", run.ID.String()), zap.String("journal", j.Path()), zap.Error(jerr))
		return err
	}
	l.Debug("Recorded run",
		zap.String("run", run.ID.String()),
		zap.String("status", string(run.Status)),
		zap.String("journal", j.Path()),
	)
	return err
}
