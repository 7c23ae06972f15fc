// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the magellan CLI, which creates search
// indices, loads paper and metadata documents into them and runs query-string
// searches against the cluster.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/magellan/internal/cluster"
	"github.com/pdiddy/magellan/internal/credentials"
	"github.com/pdiddy/magellan/internal/logging"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir is read for credentials when --creds is not given.
const secretsDir = ".secrets"

var (
	// logger is built in PersistentPreRunE and used by main to report errors.
	logger *zap.Logger

	// creds holds the cluster credentials loaded at startup.
	creds credentials.Credentials

	// newLogger builds the command logger. Tests replace it.
	newLogger = logging.New
)

// rootCmd is the base command for the magellan CLI.
var rootCmd = &cobra.Command{
	Use:   "magellan",
	Short: "Load scientific papers into a search cluster and query them",
	Long: `magellan manages the paper and metadata indices on an Elasticsearch
cluster, bulk loads CORD-19 style full-text JSON papers and metadata.csv rows
into them, and runs query-string searches.

Credentials are read from a JSON file named with --creds, or from
.secrets/username and .secrets/password, so they never appear in shell
history.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./magellan.yaml or ~/.config/magellan/magellan.yaml)")
	pf.String("host", "localhost", "cluster hostname")
	pf.IntP("port", "p", 9200, "cluster HTTP port")
	pf.BoolP("secure", "s", false, "connect over https")
	pf.StringP("creds", "c", "", `path to a JSON credentials file ({"username": ..., "password": ...})`)
	pf.String("ca-cert", "", "PEM file used to verify the cluster certificate")
	pf.Duration("timeout", cluster.DefaultTimeout, "per-request timeout")
	pf.String("config-root", "config", "directory holding index/<version>/<name>.json mapping files")
	pf.String("journal", filepath.Join(".magellan", "journal.db"), "run journal database (empty disables the journal)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", logging.FormatJSON, "log format: json or console")

	_ = viper.BindPFlags(pf)
	_ = viper.BindEnv("log-level", "MAGELLAN_LOG_LEVEL", "LOG_LEVEL")
}

func initConfig() {
	cfgFile := viper.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("magellan")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "magellan"))
		}
	}

	viper.SetEnvPrefix("MAGELLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	_ = viper.ReadInConfig()
}

// setup builds the logger and loads credentials before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	l, err := newLogger(logging.Options{
		Level:  viper.GetString("log-level"),
		Format: viper.GetString("log-format"),
		Output: cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	logger = l
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("Using config file", zap.String("path", used))
	}

	creds, err = loadCredentials(viper.GetString("creds"), secretsDir)
	if err != nil {
		return err
	}

	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))
	return nil
}

// loadCredentials reads the credentials file when one is named, otherwise
// the secrets directory.
func loadCredentials(path, dir string) (credentials.Credentials, error) {
	if path != "" {
		return credentials.Load(path)
	}
	return credentials.FromDir(dir)
}

// reportError logs err, with the cluster's status and response body when the
// cluster rejected the request.
func reportError(l *zap.Logger, err error) {
	var ce *cluster.Error
	if errors.As(err, &ce) {
		l.Error(err.Error(), ce.Fields()...)
		return
	}
	l.Error(err.Error())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	l := logger
	if l == nil {
		// setup failed before the logger existed.
		l, _ = logging.New(logging.Options{})
	}
	reportError(l, err)
	_ = l.Sync()
	os.Exit(1)
}
