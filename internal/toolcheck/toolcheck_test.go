package toolcheck

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/codequotient/cq/pkg/corequality"
)

func TestLintAdapter_MissingBinaryDegrades(t *testing.T) {
	a := &LintAdapter{Cmd: "cq-nonexistent-pylint", Timeout: time.Second, Weights: map[string]float64{"C": 0.25, "W": 0.5, "R": 0.4, "E": 1.0}}
	findings, outcome, reason := a.Run(context.Background(), []string{"a.py"})
	if outcome != corequality.OutcomeDegraded {
		t.Fatalf("expected OutcomeDegraded for a missing binary, got %v", outcome)
	}
	if reason == "" {
		t.Error("expected a non-empty degradation reason")
	}
	if len(findings.Counts) != 0 {
		t.Errorf("expected no findings when degraded, got %+v", findings.Counts)
	}
}

func TestLintAdapter_NoFilesIsEmptyOutcome(t *testing.T) {
	a := &LintAdapter{Cmd: "pylint", Timeout: time.Second}
	_, outcome, _ := a.Run(context.Background(), nil)
	if outcome != corequality.OutcomeEmpty {
		t.Errorf("expected OutcomeEmpty for zero files, got %v", outcome)
	}
}

func TestTypingAdapter_MissingBinaryDegrades(t *testing.T) {
	a := &TypingAdapter{Cmd: "cq-nonexistent-mypy", Timeout: time.Second, Scale: TypingScale{MaxScoreAt0: 100, ZeroScoreAt20: 20}}
	_, outcome, reason := a.Run(context.Background(), []string{"a.py"}, map[string]int{"a.py": 10})
	if outcome != corequality.OutcomeDegraded {
		t.Fatalf("expected OutcomeDegraded for a missing binary, got %v", outcome)
	}
	if reason == "" {
		t.Error("expected a non-empty degradation reason")
	}
}

func TestTypingAdapter_NoFilesIsEmptyOutcome(t *testing.T) {
	a := &TypingAdapter{Cmd: "mypy", Timeout: time.Second}
	_, outcome, _ := a.Run(context.Background(), nil, nil)
	if outcome != corequality.OutcomeEmpty {
		t.Errorf("expected OutcomeEmpty for zero files, got %v", outcome)
	}
}

// fakeScript writes an executable shell script to dir/name and returns its path.
func fakeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake shell scripts are not supported on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLintAdapter_ParsesJSONOutput(t *testing.T) {
	dir := t.TempDir()
	script := fakeScript(t, dir, "fake-pylint", `cat <<'EOF'
[
  {"path": "a.py", "type": "warning"},
  {"path": "a.py", "type": "error"}
]
EOF
`)
	a := &LintAdapter{Cmd: script, Timeout: 5 * time.Second, Weights: map[string]float64{"C": 0.25, "W": 0.5, "R": 0.4, "E": 1.0}}
	findings, outcome, _ := a.Run(context.Background(), []string{"a.py"})
	if outcome != corequality.OutcomeOK {
		t.Fatalf("expected OutcomeOK, got %v", outcome)
	}
	counts := findings.Counts["a.py"]
	if counts.W != 1 || counts.E != 1 {
		t.Errorf("expected W=1 E=1, got %+v", counts)
	}
}

func TestTypingAdapter_ParsesErrorLines(t *testing.T) {
	dir := t.TempDir()
	script := fakeScript(t, dir, "fake-mypy", `cat <<'EOF'
a.py:3: error: Incompatible types
a.py:5: note: See here
EOF
`)
	a := &TypingAdapter{Cmd: script, Timeout: 5 * time.Second, Scale: TypingScale{MaxScoreAt0: 100, ZeroScoreAt20: 20}}
	findings, outcome, _ := a.Run(context.Background(), []string{"a.py"}, map[string]int{"a.py": 100})
	if outcome != corequality.OutcomeOK {
		t.Fatalf("expected OutcomeOK, got %v", outcome)
	}
	if findings.Errors["a.py"] != 1 {
		t.Errorf("expected 1 error counted (notes excluded), got %d", findings.Errors["a.py"])
	}
}
