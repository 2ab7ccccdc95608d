package report

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteMarkdown_IncludesAllSections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleReport()); err != nil {
		t.Fatalf("WriteMarkdown returned an error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"# Code Quotient Report",
		"## Project Summary",
		"## Architecture Violations",
		"## Top 10 Duplication",
		"## Top 10 Lint Findings",
		"## Top 10 Cognitive Complexity",
		"## Tools",
		"ui/view.py",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown output to contain %q", want)
		}
	}
}

func TestWriteMarkdown_NoViolationsPrintsNone(t *testing.T) {
	r := sampleReport()
	r.Project.ArchitectureViolations = nil
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "None detected") {
		t.Error("expected a 'None detected' line when there are no architecture violations")
	}
}
