// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the refcheck CLI: reference list
// verification against Crossref and PubMed, with AI-assisted diagnosis
// of unresolvable entries.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/refcheck/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, configured in the
// persistent pre-run hook.
var logger *zap.Logger

// secretDefault returns the configured value if set, then falls back to
// the secrets directory.
func secretDefault(key, configured string) string {
	if configured != "" {
		return configured
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the refcheck CLI.
var rootCmd = &cobra.Command{
	Use:   "refcheck",
	Short: "Verify reference lists against bibliographic databases",
	Long: `refcheck resolves each citation in a reference list against Crossref,
enriches confirmed records from PubMed, flags retractions, corrections,
and duplicates, and asks a generative model to classify entries that no
database can resolve.

Runs are incremental: interrupted batches resume from the cache without
re-querying already-resolved entries.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env first so the secrets directory wins on conflicts.
		_ = godotenv.Load()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}

		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logger, err = zap.NewDevelopment()
		} else {
			logger, err = zap.NewProduction()
		}
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

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./refcheck.yaml or ~/.config/refcheck/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "human-readable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("refcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "refcheck"))
		}
	}

	viper.SetEnvPrefix("REFCHECK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
