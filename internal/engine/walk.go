package engine

import (
	"io/fs"
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/leakguard/leakguard/internal/ignore"
)

// WalkOptions selects files for a full-tree scan.
type WalkOptions struct {
	Rules           ignore.Rules
	DefaultExcludes bool
	// IncludeGlobs and ExcludeGlobs are comma-separated doublestar patterns
	// matched against the path relative to the root.
	IncludeGlobs string
	ExcludeGlobs string
}

// Walk lists the files under root that a scan should consider, in lexical
// order. .git is always pruned; directories named by the rules (or the
// default excludes) are pruned without descending. File-level rules are
// left to the Scanner so skipped files are counted.
func Walk(root string, opts WalkOptions) ([]string, error) {
	var out []string
	ign := ignore.New(ignore.Rules{Directories: opts.Rules.Directories}, false)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if p == root {
				return nil
			}
			name := d.Name()
			if name == ".git" || (opts.DefaultExcludes && ignore.IsDefaultDir(name)) {
				return filepath.SkipDir
			}
			rel, _ := filepath.Rel(root, p)
			if ign.Match(filepath.Join(rel, "x")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		if !allowedByGlobs(rel, opts) {
			return nil
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// allowedByGlobs returns true if the given path is allowed by the include/exclude
// glob lists.
func allowedByGlobs(relPath string, opts WalkOptions) bool {
	rp := strings.ReplaceAll(relPath, "\\", "/")
	includes := parseGlobsList(opts.IncludeGlobs)
	excludes := parseGlobsList(opts.ExcludeGlobs)
	if len(includes) > 0 {
		matched := matchAnyGlob(rp, includes)
		if !matched {
			return false
		}
	}
	if len(excludes) > 0 && matchAnyGlob(rp, excludes) {
		return false
	}
	return true
}

func parseGlobsList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
			out = append(out, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
