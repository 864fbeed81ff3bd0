// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-advisor CLI.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/research-advisor/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// logger is built by the root command and shared by all subcommands.
var logger *zap.Logger

// rootCmd is the base command for the research-advisor CLI.
var rootCmd = &cobra.Command{
	Use:   "research-advisor",
	Short: "Evidence-based novelty assessment for research questions",
	Long: `research-advisor judges whether a research question is still worth
pursuing. It retrieves published evidence, weighs citation impact, asks a
reasoning service for a verdict, and recommends continuing or pivoting.

The assess command runs the full pipeline for one question. The gaps
subcommands maintain a local catalog of open research problems that
backs pivot suggestions: import a seed file, backfill embeddings,
enrich taxonomy labels, and retrieve entries matching a profile.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first, so everything after it sees the variables.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := s.Names()
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		logger, err = buildLogger(verbose)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-advisor.yaml or ~/.config/research-advisor/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
