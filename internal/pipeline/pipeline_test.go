package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/codequotient/cq/internal/config"
)

// noToolsConfig points pylint/mypy at nonexistent binaries so Run exercises
// the degradation path deterministically, without depending on the host
// having either tool installed.
func noToolsConfig() config.Config {
	cfg := config.Default()
	cfg.Tools.PylintCmd = "cq-test-nonexistent-pylint"
	cfg.Tools.MypyCmd = "cq-test-nonexistent-mypy"
	cfg.Bootstrap.Iterations = 10
	return cfg
}

func writeProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	src := "def add(a: int, b: int) -> int:\n    if a and b:\n        return a + b\n    return 0\n"
	if err := os.WriteFile(filepath.Join(dir, "calc.py"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun_ProducesReportForSimpleProject(t *testing.T) {
	dir := writeProject(t)
	result, err := Run(context.Background(), dir, noToolsConfig(), Options{Jobs: 2})
	if err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if len(result.Report.Files) != 1 {
		t.Fatalf("expected 1 file in the report, got %d", len(result.Report.Files))
	}
	f := result.Report.Files[0]
	if f.Path != "calc.py" {
		t.Errorf("expected path calc.py, got %q", f.Path)
	}
	if f.Metrics.CognitiveComplexity == 0 {
		t.Error("expected non-zero cognitive complexity for a file with an if/and/return")
	}
}

func TestRun_DegradedToolsSurfaceAsWarningsAndMissingReasons(t *testing.T) {
	dir := writeProject(t)
	result, err := Run(context.Background(), dir, noToolsConfig(), Options{Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 2 {
		t.Fatalf("expected 2 warnings (lint + typing degraded), got %v", result.Warnings)
	}
	if len(result.Report.Project.Confidence.Degraded) != 2 {
		t.Errorf("expected lint and typing listed as degraded, got %v", result.Report.Project.Confidence.Degraded)
	}
	if len(result.Report.Files[0].MissingReasons) != 2 {
		t.Errorf("expected 2 missing reasons on the file, got %v", result.Report.Files[0].MissingReasons)
	}
}

func TestRun_EmptyProjectProducesEmptyFileList(t *testing.T) {
	dir := t.TempDir()
	result, err := Run(context.Background(), dir, noToolsConfig(), Options{Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Report.Files) != 0 {
		t.Errorf("expected no files for an empty directory, got %d", len(result.Report.Files))
	}
}

func TestRun_ReportMetadataIsPopulated(t *testing.T) {
	dir := writeProject(t)
	result, err := Run(context.Background(), dir, noToolsConfig(), Options{Jobs: 1})
	if err != nil {
		t.Fatal(err)
	}
	if result.Report.Meta.ToolVersion == "" {
		t.Error("expected a non-empty tool version in report metadata")
	}
	if result.Report.Meta.GeneratedAt == "" {
		t.Error("expected a non-empty generated_at timestamp")
	}
	if result.Report.Project.Path != dir {
		t.Errorf("expected project path %q, got %q", dir, result.Report.Project.Path)
	}
}
