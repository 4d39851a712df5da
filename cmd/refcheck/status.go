// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List verification runs and their progress",
	Long: `Status lists every run recorded in the incremental store with its
input file, resolved count, and completion state. Incomplete runs can be
continued with "refcheck resume".`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.Runs(context.Background())
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-30s  %-12s  %-20s  %s\n",
		"Run", "Input", "Resolved", "Started", "State")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 110))

	for _, run := range runs {
		input := run.InputPath
		if len(input) > 30 {
			input = "..." + input[len(input)-27:]
		}
		state := "in progress"
		if !run.CompletedAt.IsZero() {
			state = "complete"
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-30s  %4d/%-7d  %-20s  %s\n",
			run.ID, input, run.Cached, run.TotalRefs,
			run.StartedAt.Format("2006-01-02 15:04:05"), state)
	}
	return nil
}
