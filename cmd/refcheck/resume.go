// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/admission"
	"github.com/pdiddy/refcheck/internal/store"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <run-id> <file>",
	Short: "Continue an interrupted verification run",
	Long: `Resume continues a run from its incremental cache: already-resolved
references are reused and processing restarts at the first missing or
provisional entry. Records whose evidence lookups timed out are retried.

The input file must be the same one the run started with; a cache
holding more records than the input is rejected.`,
	Args: cobra.ExactArgs(2),
	RunE: runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctrl := admission.New(cfg.Admission.Capacity, cfg.Admission.StaleAfter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return checkOne(ctx, cfg, st, ctrl, args[0], args[1])
}
