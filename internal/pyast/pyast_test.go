package pyast

import (
	"strings"
	"testing"

	"github.com/codequotient/cq/internal/pytree"
)

func parse(t *testing.T, source string) (*pytree.File, bool) {
	t.Helper()
	pool, err := pytree.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(pool.Close)
	f, ok := pool.Parse("test.py", []byte(source))
	t.Cleanup(f.Close)
	return f, ok
}

func TestNormalizeForDup_ReplacesIdentifiersAndLiterals(t *testing.T) {
	f, ok := parse(t, "def add(x, y):\n    return x + y + 1\n")
	cfg := NormalizeConfig{StripLiterals: true, StripComments: true, IdentifierPlaceholder: "ID"}
	tokens := NormalizeForDup(f, ok, cfg)
	joined := strings.Join(tokens, " ")
	if strings.Contains(joined, "add") || strings.Contains(joined, "x") || strings.Contains(joined, "y") {
		t.Errorf("expected identifiers to be replaced, got %q", joined)
	}
	if !strings.Contains(joined, "CONST") {
		t.Errorf("expected the integer literal to become CONST, got %q", joined)
	}
}

func TestNormalizeForDup_StructurallyIdenticalFunctionsNormalizeIdentically(t *testing.T) {
	cfg := NormalizeConfig{StripLiterals: true, StripComments: true, IdentifierPlaceholder: "ID"}
	a, okA := parse(t, "def add(x, y):\n    return x + y\n")
	b, okB := parse(t, "def sum_two(p, q):\n    return p + q\n")

	tokensA := strings.Join(NormalizeForDup(a, okA, cfg), " ")
	tokensB := strings.Join(NormalizeForDup(b, okB, cfg), " ")
	if tokensA != tokensB {
		t.Errorf("expected structurally identical functions to normalize identically:\n%q\n%q", tokensA, tokensB)
	}
}

func TestNormalizeForDup_StripsComments(t *testing.T) {
	f, ok := parse(t, "x = 1  # a comment\n")
	cfg := NormalizeConfig{StripLiterals: false, StripComments: true}
	tokens := NormalizeForDup(f, ok, cfg)
	joined := strings.Join(tokens, " ")
	if strings.Contains(joined, "comment") {
		t.Errorf("expected comment to be stripped, got %q", joined)
	}
}

func TestNormalizeForDup_FallsBackToRawSourceOnParseFailure(t *testing.T) {
	f, _ := parse(t, "def broken(:\n")
	cfg := NormalizeConfig{StripLiterals: true, StripComments: true, IdentifierPlaceholder: "ID"}
	tokens := NormalizeForDup(f, false, cfg)
	if len(tokens) == 0 {
		t.Error("expected a non-empty token fallback for unparseable source")
	}
}

func TestIterImports_PlainImport(t *testing.T) {
	f, ok := parse(t, "import os.path\n")
	imports := IterImports(f)
	_ = ok
	if len(imports) != 1 || imports[0].FullName != "os.path" || imports[0].RootName != "os" {
		t.Fatalf("unexpected imports: %+v", imports)
	}
}

func TestIterImports_FromImport(t *testing.T) {
	f, ok := parse(t, "from src.core import engine\n")
	_ = ok
	imports := IterImports(f)
	if len(imports) != 1 || imports[0].FullName != "src.core" || imports[0].RootName != "src" {
		t.Fatalf("unexpected imports: %+v", imports)
	}
}

func TestIterImports_RelativeImport(t *testing.T) {
	f, ok := parse(t, "from . import sibling\n")
	_ = ok
	imports := IterImports(f)
	if len(imports) != 1 || imports[0].FullName != "" {
		t.Fatalf("expected an empty module name for a bare relative import, got %+v", imports)
	}
}

func TestAnnotationCoverage_FullyAnnotated(t *testing.T) {
	f, ok := parse(t, "def f(a: int, b: int) -> int:\n    return a + b\n")
	_ = ok
	annotated, total := AnnotationCoverage(f)
	if annotated != total || total != 3 {
		t.Errorf("expected 3/3 annotated (2 params + return), got %d/%d", annotated, total)
	}
}

func TestAnnotationCoverage_Unannotated(t *testing.T) {
	f, ok := parse(t, "def f(a, b):\n    return a + b\n")
	_ = ok
	annotated, total := AnnotationCoverage(f)
	if annotated != 0 || total != 3 {
		t.Errorf("expected 0/3 annotated, got %d/%d", annotated, total)
	}
}

func TestAnnotationCoverage_NoFunctionsIsZeroTotal(t *testing.T) {
	f, ok := parse(t, "x = 1\n")
	_ = ok
	annotated, total := AnnotationCoverage(f)
	if annotated != 0 || total != 0 {
		t.Errorf("expected 0/0 for a file with no functions, got %d/%d", annotated, total)
	}
}
