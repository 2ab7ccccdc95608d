// Package toolcheck runs external lint and type-checking tools as child
// processes and degrades gracefully when they are unavailable, time out, or
// produce output the adapter cannot trust.
package toolcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/codequotient/cq/pkg/corequality"
)

var lintExitAllowlist = map[int]bool{0: true, 2: true, 4: true, 8: true, 16: true, 32: true}
var typingExitAllowlist = map[int]bool{0: true, 1: true}

// LintFindings holds per-file pylint-style category counts and scores.
type LintFindings struct {
	Counts  map[string]corequality.LintCounts
	Weighted map[string]float64
}

// LintAdapter shells out to a pylint-compatible JSON-output linter.
type LintAdapter struct {
	Cmd     string
	Timeout time.Duration
	Weights map[string]float64
}

// Run invokes the adapter's command against files, returning findings plus a
// three-state outcome and a human-readable reason when degraded.
func (a *LintAdapter) Run(ctx context.Context, files []string) (LintFindings, corequality.Outcome, string) {
	empty := LintFindings{Counts: map[string]corequality.LintCounts{}, Weighted: map[string]float64{}}
	if len(files) == 0 {
		return empty, corequality.OutcomeEmpty, ""
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	args := append([]string{"--output-format=json"}, files...)
	cmd := exec.CommandContext(ctx, a.Cmd, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if _, err := exec.LookPath(a.Cmd); err != nil {
		return empty, corequality.OutcomeDegraded, fmt.Sprintf("pylint unavailable: %v", err)
	}

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return empty, corequality.OutcomeDegraded, "pylint unavailable: timed out"
	}
	exitCode := exitCodeOf(cmd, err)
	if !lintExitAllowlist[exitCode] {
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = "pylint run failed"
		}
		return empty, corequality.OutcomeDegraded, reason
	}

	raw := stdout.Bytes()
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("[]")
	}
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return empty, corequality.OutcomeDegraded, "pylint produced invalid JSON"
	}

	counts := map[string]corequality.LintCounts{}
	result := gjson.ParseBytes(raw)
	result.ForEach(func(_, msg gjson.Result) bool {
		path := msg.Get("path").String()
		symbol := msg.Get("symbol").String()
		category := ""
		if symbol != "" {
			category = strings.ToUpper(symbol[:1])
		} else {
			t := msg.Get("type").String()
			if t != "" {
				category = strings.ToUpper(t[:1])
			}
		}
		c := counts[path]
		switch category {
		case "C":
			c.C++
		case "W":
			c.W++
		case "R":
			c.R++
		case "E":
			c.E++
		}
		counts[path] = c
		return true
	})

	weighted := map[string]float64{}
	for path, c := range counts {
		total := float64(c.C)*a.Weights["C"] + float64(c.W)*a.Weights["W"] +
			float64(c.R)*a.Weights["R"] + float64(c.E)*a.Weights["E"]
		score := 100.0 - total
		if score < 0 {
			score = 0
		}
		weighted[path] = score
	}

	if len(counts) == 0 {
		return LintFindings{Counts: counts, Weighted: weighted}, corequality.OutcomeEmpty, ""
	}
	return LintFindings{Counts: counts, Weighted: weighted}, corequality.OutcomeOK, ""
}

// TypingFindings holds per-file mypy error counts and density-derived scores.
type TypingFindings struct {
	Errors map[string]int
	Scores map[string]float64
}

// TypingScale configures the error-density-to-score curve.
type TypingScale struct {
	MaxScoreAt0   float64
	ZeroScoreAt20 float64
}

var mypyErrorRe = regexp.MustCompile(`^([^:]+):(\d+): (error|note): (.+)$`)

// TypingAdapter shells out to a mypy-compatible type checker.
type TypingAdapter struct {
	Cmd     string
	Timeout time.Duration
	Scale   TypingScale
}

// Run invokes mypy against files and scores every file in locByPath by its
// error density per 1000 lines, regardless of whether mypy reported any
// error in that particular file.
func (a *TypingAdapter) Run(ctx context.Context, files []string, locByPath map[string]int) (TypingFindings, corequality.Outcome, string) {
	if len(files) == 0 {
		return TypingFindings{Errors: map[string]int{}, Scores: map[string]float64{}}, corequality.OutcomeEmpty, ""
	}

	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	if _, err := exec.LookPath(a.Cmd); err != nil {
		return TypingFindings{}, corequality.OutcomeDegraded, fmt.Sprintf("mypy unavailable: %v", err)
	}

	args := append([]string{"--hide-error-context", "--no-color-output", "--no-error-summary", "--show-error-codes"}, files...)
	cmd := exec.CommandContext(ctx, a.Cmd, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return TypingFindings{}, corequality.OutcomeDegraded, "mypy unavailable: timed out"
	}
	exitCode := exitCodeOf(cmd, err)
	if !typingExitAllowlist[exitCode] {
		reason := strings.TrimSpace(stderr.String())
		if reason == "" {
			reason = "mypy run failed"
		}
		return TypingFindings{}, corequality.OutcomeDegraded, reason
	}

	errors := map[string]int{}
	for _, line := range strings.Split(stdout.String(), "\n") {
		m := mypyErrorRe.FindStringSubmatch(line)
		if m == nil || m[3] != "error" {
			continue
		}
		errors[m[1]]++
	}

	scores := map[string]float64{}
	for path, loc := range locByPath {
		if loc < 1 {
			loc = 1
		}
		density := float64(errors[path]) * 1000.0 / float64(loc)
		if a.Scale.ZeroScoreAt20 <= 0 {
			// No slope to apply: any error scores 0, an error-free file
			// keeps the maximum score.
			if density > 0 {
				scores[path] = 0.0
			} else {
				scores[path] = a.Scale.MaxScoreAt0
			}
			continue
		}
		if density >= a.Scale.ZeroScoreAt20 {
			scores[path] = 0.0
			continue
		}
		score := a.Scale.MaxScoreAt0 - (a.Scale.MaxScoreAt0/a.Scale.ZeroScoreAt20)*density
		if score < 0 {
			score = 0
		}
		scores[path] = score
	}

	if len(errors) == 0 {
		return TypingFindings{Errors: errors, Scores: scores}, corequality.OutcomeEmpty, ""
	}
	return TypingFindings{Errors: errors, Scores: scores}, corequality.OutcomeOK, ""
}

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
