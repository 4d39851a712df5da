// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/dupes"
	"github.com/pdiddy/refcheck/internal/stats"
	"github.com/pdiddy/refcheck/internal/store"
	"github.com/pdiddy/refcheck/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Re-export a run's report from the incremental store",
	Long: `Export rebuilds the JSON report for a cached run: duplicate detection
and statistics are recomputed over the stored records, including
provisional ones, so a partially completed run still yields an honest
report over the subset it finished.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("out", "", "report path (default <run-id>_report.json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	runID := args[0]
	cfg := loadConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	refs, err := st.Records(ctx, runID)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("run %s has no records", runID)
	}

	total := len(refs)
	runs, err := st.Runs(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if run.ID == runID {
			total = run.TotalRefs
		}
	}

	dupes.MarkDOIDuplicates(refs)
	pairs := dupes.MarkFuzzyDuplicates(refs)

	results := make([]types.Reference, len(refs))
	for i, ref := range refs {
		results[i] = *ref
	}
	result := types.BatchResult{
		Statistics: stats.Calculate(refs, total, pairs),
		Results:    results,
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = runID + "_report.json"
	}
	if err := store.WriteReport(out, result); err != nil {
		return err
	}
	fmt.Println("Exported to", out)
	return nil
}
