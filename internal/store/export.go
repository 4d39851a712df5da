// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/refcheck/pkg/types"
)

// Manifest is the YAML run summary written next to each exported report.
type Manifest struct {
	RunID       string `yaml:"run_id"`
	InputPath   string `yaml:"input_path"`
	TotalRefs   int    `yaml:"total_refs"`
	Resolved    int    `yaml:"resolved"`
	StartedAt   string `yaml:"started_at"`
	CompletedAt string `yaml:"completed_at,omitempty"`
	ReportPath  string `yaml:"report_path"`
}

// WriteReport writes a batch result as JSON for the rendering layer:
// a single object holding the statistics and the ordered records.
func WriteReport(path string, result types.BatchResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteManifest writes the YAML manifest for a run beside its report.
func WriteManifest(path string, run Run, reportPath string) error {
	m := Manifest{
		RunID:      run.ID,
		InputPath:  run.InputPath,
		TotalRefs:  run.TotalRefs,
		Resolved:   run.Cached,
		StartedAt:  run.StartedAt.Format(time.RFC3339),
		ReportPath: reportPath,
	}
	if !run.CompletedAt.IsZero() {
		m.CompletedAt = run.CompletedAt.Format(time.RFC3339)
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
