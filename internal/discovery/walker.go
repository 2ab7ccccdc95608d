// Package discovery enumerates a project's Python files, honoring
// .gitignore, configured include/exclude prefixes, and classifying each
// file's role for scoring-weight purposes.
package discovery

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/codequotient/cq/pkg/corequality"
)

// skipDirs lists directory names the walker never descends into.
var skipDirs = map[string]bool{
	".git":        true,
	"__pycache__": true,
	"node_modules": true,
}

// roleHints mirrors the reference implementation's ROLE_HINTS: the first
// role whose hint substring appears in the lowercased path wins. Map
// iteration in Go is unordered, so hints are checked in this fixed slice
// order rather than over the map directly.
var roleHintOrder = []corequality.Role{
	corequality.RoleTest, corequality.RoleConfig, corequality.RoleVendor, corequality.RoleGenerated,
}

var roleHints = map[corequality.Role][]string{
	corequality.RoleTest:      {"tests", "test_"},
	corequality.RoleConfig:    {"config", "settings", "cfg", "ini", "yml", "yaml"},
	corequality.RoleVendor:    {"vendor", "third_party", "site-packages"},
	corequality.RoleGenerated: {"build", "dist"},
}

// File is one discovered, readable Python source file.
type File struct {
	Path    string // absolute path
	RelPath string // relative to the scan root
	Source  []byte
	LOC     int
	Role    corequality.Role
}

// Walker enumerates Python files under a root directory.
type Walker struct {
	Exclude []string // absolute path prefixes to skip, matching config Paths.Exclude
}

// NewWalker builds a Walker with the given exclude prefixes already resolved
// to absolute paths by the caller.
func NewWalker(exclude []string) *Walker {
	return &Walker{Exclude: exclude}
}

// Discover walks root, returning every *.py file not matched by .gitignore
// or an exclude prefix, in filepath.WalkDir's lexical walk order (entries of
// each directory by name), which is deterministic for a given tree.
func (w *Walker) Discover(root string) ([]File, error) {
	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gi, err := ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, err
		}
		gitIgnore = gi
	}

	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			if skipDirs[name] {
				return fs.SkipDir
			}
			return nil
		}
		if filepath.Ext(name) != ".py" {
			return nil
		}
		if isExcluded(path, w.Exclude) {
			return nil
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			return nil
		}

		source, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		files = append(files, File{
			Path:    path,
			RelPath: filepath.ToSlash(relPath),
			Source:  source,
			LOC:     countLines(source),
			Role:    detectRole(relPath),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func isExcluded(path string, excludes []string) bool {
	for _, ex := range excludes {
		if strings.HasPrefix(path, ex) {
			return true
		}
	}
	return false
}

// detectRole matches the reference implementation's detect_role: first hint
// substring found in the lowercased path wins; no match means RoleDefault.
func detectRole(path string) corequality.Role {
	lower := strings.ToLower(path)
	for _, role := range roleHintOrder {
		for _, hint := range roleHints[role] {
			if strings.Contains(lower, hint) {
				return role
			}
		}
	}
	return corequality.RoleDefault
}

// countLines mirrors Python's len(text.splitlines()): a trailing newline
// does not count as an extra empty line, but a trailing partial line does.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	lines := 0
	for _, b := range source {
		if b == '\n' {
			lines++
		}
	}
	if source[len(source)-1] != '\n' {
		lines++
	}
	return lines
}
