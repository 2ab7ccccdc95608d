package scoring

import (
	"math"
	"testing"

	"github.com/codequotient/cq/pkg/corequality"
)

func TestWeightedGrade_PerfectFile(t *testing.T) {
	m := corequality.FileMetrics{
		DuplicationRatio:  0,
		LintWeightedScore: 100,
		TypingScore:       100,
		ComplexityScore:   100,
	}
	w := Weights{Duplication: 0.25, Lint: 0.30, Typing: 0.20, Complexity: 0.25}
	got := WeightedGrade(m, w)
	if math.Abs(got-100) > 1e-9 {
		t.Errorf("WeightedGrade() = %v, want 100", got)
	}
}

func TestWeightedGrade_FullyDuplicated(t *testing.T) {
	m := corequality.FileMetrics{
		DuplicationRatio:  1,
		LintWeightedScore: 100,
		TypingScore:       100,
		ComplexityScore:   100,
	}
	w := Weights{Duplication: 0.25, Lint: 0.30, Typing: 0.20, Complexity: 0.25}
	got := WeightedGrade(m, w)
	want := (0*0.25*100 + 100*0.30 + 100*0.20 + 100*0.25) / 1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("WeightedGrade() = %v, want %v", got, want)
	}
}

func TestFileConfidence_HealthyLargeFile(t *testing.T) {
	conf := FileConfidence(300, true, true, false, false, true)
	if conf["overall"] <= 0.9 {
		t.Errorf("expected high overall confidence for a large, clean file, got %v", conf["overall"])
	}
}

func TestFileConfidence_DegradedToolsLowerConfidence(t *testing.T) {
	healthy := FileConfidence(300, true, true, false, false, true)
	degraded := FileConfidence(300, true, true, true, true, true)
	if degraded["lint"] >= healthy["lint"] {
		t.Errorf("degraded lint confidence %v should be lower than healthy %v", degraded["lint"], healthy["lint"])
	}
	if degraded["typing"] >= healthy["typing"] {
		t.Errorf("degraded typing confidence %v should be lower than healthy %v", degraded["typing"], healthy["typing"])
	}
}

func TestFileConfidence_ParserFailureLowersBase(t *testing.T) {
	ok := FileConfidence(300, true, true, false, false, true)
	failed := FileConfidence(300, false, true, false, false, true)
	if failed["duplication"] >= ok["duplication"] {
		t.Errorf("parser-failure confidence %v should be lower than %v", failed["duplication"], ok["duplication"])
	}
}

func TestAggregateProject_WeightsByRoleAndLOC(t *testing.T) {
	files := []corequality.FileReport{
		{Role: corequality.RoleDefault, LOC: 100, Grade: 80, Metrics: corequality.FileMetrics{LintWeightedScore: 80, TypingScore: 80, ComplexityScore: 80}},
		{Role: corequality.RoleTest, LOC: 100, Grade: 0, Metrics: corequality.FileMetrics{LintWeightedScore: 0, TypingScore: 0, ComplexityScore: 0}},
	}
	roleWeights := map[corequality.Role]float64{corequality.RoleDefault: 1.0, corequality.RoleTest: 0.35}

	summary := AggregateProject(files, roleWeights)
	// default-role file carries weight 100, test-role file carries weight 35;
	// the blended grade should sit well above the midpoint of 0 and 80.
	if summary.Grade <= 40 {
		t.Errorf("expected role-weighted grade above the unweighted midpoint, got %v", summary.Grade)
	}
}

func TestAggregateProject_EmptyFiles(t *testing.T) {
	summary := AggregateProject(nil, nil)
	if summary.Grade != 0 || summary.Duplication != 0 {
		t.Errorf("expected zero-value summary for no files, got %+v", summary)
	}
}

func TestBootstrapInterval_EmptyValues(t *testing.T) {
	interval := BootstrapInterval(nil, 100, 1337)
	if interval != [2]float64{0, 0} {
		t.Errorf("BootstrapInterval(nil) = %v, want [0 0]", interval)
	}
}

func TestBootstrapInterval_ConstantValuesCollapseToPoint(t *testing.T) {
	values := []float64{75, 75, 75, 75}
	interval := BootstrapInterval(values, 200, 42)
	if interval[0] != 75 || interval[1] != 75 {
		t.Errorf("BootstrapInterval(constant) = %v, want [75 75]", interval)
	}
}

func TestBootstrapInterval_Deterministic(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	a := BootstrapInterval(values, 500, 99)
	b := BootstrapInterval(values, 500, 99)
	if a != b {
		t.Errorf("BootstrapInterval should be deterministic for a fixed seed, got %v and %v", a, b)
	}
}

func TestBootstrapInterval_BoundedByInputRange(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	interval := BootstrapInterval(values, 500, 7)
	if interval[0] < 10 || interval[1] > 50 {
		t.Errorf("BootstrapInterval() = %v, expected to stay within [10, 50]", interval)
	}
}
