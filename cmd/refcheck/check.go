// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pdiddy/refcheck/internal/admission"
	"github.com/pdiddy/refcheck/internal/crossref"
	"github.com/pdiddy/refcheck/internal/diagnose"
	"github.com/pdiddy/refcheck/internal/pipeline"
	"github.com/pdiddy/refcheck/internal/pubmed"
	"github.com/pdiddy/refcheck/internal/store"
	"github.com/pdiddy/refcheck/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <file> [files...]",
	Short: "Resolve and verify a reference list",
	Long: `Check reads citations from a text file (one per line) or a CSV file
(first column), resolves each against Crossref and PubMed, runs duplicate
detection over the batch, and writes a JSON report plus a YAML run
manifest next to the input.

Interrupt with Ctrl-C at any point: completed records are preserved and
the run can be continued later with "refcheck resume".`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctrl := admission.New(cfg.Admission.Capacity, cfg.Admission.StaleAfter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, path := range args {
		runID := uuid.NewString()
		if err := checkOne(ctx, cfg, st, ctrl, runID, path); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("interrupted; continue with: refcheck resume %s %s", runID, path)
		}
	}
	return nil
}

// checkOne runs one input file through the pipeline under an admission
// token and writes its report. Shared by check and resume.
func checkOne(ctx context.Context, cfg types.CheckConfig, st *store.Store, ctrl *admission.Controller, runID, path string) error {
	refs, err := readReferences(path)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("%s: no references found", path)
	}

	if err := ctrl.Acquire(runID); err != nil {
		return err
	}
	defer ctrl.Release(runID)

	runner := pipeline.New(
		crossref.New(cfg.Crossref),
		pubmed.New(cfg.PubMed.APIKey, cfg.PubMed.UserAgent, cfg.PubMed.Timeout),
		classifierFor(cfg.Diagnosis),
		st, logger, cfg.Pipeline)

	result, runErr := runner.Run(ctx, runID, path, refs)

	if err := writeOutputs(st, runID, path, result); err != nil {
		return err
	}
	printSummary(runID, path, result)
	return runErr
}

// classifierFor builds the generative classifier backend, or nil when no
// API key is configured so the pipeline degrades to regex heuristics.
func classifierFor(cfg types.DiagnosisConfig) diagnose.Backend {
	if cfg.APIKey == "" {
		return nil
	}
	return &diagnose.QwenBackend{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: &http.Client{Timeout: cfg.Timeout},
	}
}

// readReferences loads citations from a line-oriented text file or the
// first column of a CSV file. Blank entries are dropped.
func readReferences(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	defer f.Close()

	var refs []string
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		records, err := r.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		for _, record := range records {
			if len(record) == 0 {
				continue
			}
			if text := strings.TrimSpace(record[0]); text != "" {
				refs = append(refs, text)
			}
		}
		return refs, nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			refs = append(refs, text)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return refs, nil
}

// writeOutputs writes the JSON report and YAML manifest next to the
// input file.
func writeOutputs(st *store.Store, runID, path string, result types.BatchResult) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	reportPath := base + "_report.json"
	manifestPath := base + "_run.yaml"

	if err := store.WriteReport(reportPath, result); err != nil {
		return err
	}

	runs, err := st.Runs(context.Background())
	if err != nil {
		return err
	}
	for _, run := range runs {
		if run.ID == runID {
			return store.WriteManifest(manifestPath, run, reportPath)
		}
	}
	return nil
}

func printSummary(runID, path string, result types.BatchResult) {
	s := result.Statistics
	fmt.Printf("%s: %d/%d resolved (%d matched, %d identifier mismatches, %d retracted, %d corrected)\n",
		path, len(result.Results), s.TotalReferences,
		s.MatchedRefs, s.DOIMismatchCount, s.RetractionCount, s.CorrectionCount)
	if s.DuplicateRefs > 0 || s.FuzzyDuplicatePairs > 0 {
		fmt.Printf("duplicates: %d shared-identifier records, %d fuzzy clusters\n",
			s.DuplicateRefs, s.FuzzyDuplicatePairs)
	}
	fmt.Printf("run ID: %s\n", runID)
}
