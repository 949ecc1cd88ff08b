// Package ignore decides which paths are skipped before any file I/O.
package ignore

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileName is the per-repository ignore file read by LoadDir.
const FileName = ".leakguardignore"

// Rules lists the three kinds of ignore rule.
type Rules struct {
	// Files are glob patterns. A pattern without a slash matches the base
	// name, otherwise the whole slash-separated path.
	Files []string `yaml:"files"`
	// Directories match when any directory component contains the string.
	Directories []string `yaml:"directories"`
	// Extensions match a case-insensitive suffix of the base name.
	Extensions []string `yaml:"extensions"`
}

// Merge returns the union of r and o.
func (r Rules) Merge(o Rules) Rules {
	return Rules{
		Files:       append(append([]string{}, r.Files...), o.Files...),
		Directories: append(append([]string{}, r.Directories...), o.Directories...),
		Extensions:  append(append([]string{}, r.Extensions...), o.Extensions...),
	}
}

func (r Rules) Empty() bool {
	return len(r.Files) == 0 && len(r.Directories) == 0 && len(r.Extensions) == 0
}

// Matcher evaluates Rules against paths.
type Matcher struct {
	files    []string
	dirs     []string
	exts     []string
	defaults bool
}

// New prepares a matcher. With defaults set, the built-in noisy directories
// and generated-file suffixes are also skipped.
func New(r Rules, defaults bool) Matcher {
	m := Matcher{files: r.Files, dirs: r.Directories, defaults: defaults}
	for _, e := range r.Extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m.exts = append(m.exts, e)
	}
	return m
}

// Match reports whether p should be skipped.
func (m Matcher) Match(p string) bool {
	p = filepath.ToSlash(p)
	base := path.Base(p)
	lowerBase := strings.ToLower(base)
	dirs := strings.Split(path.Dir(p), "/")

	for _, e := range m.exts {
		if strings.HasSuffix(lowerBase, e) {
			return true
		}
	}
	for _, d := range dirs {
		if d == "." || d == "" {
			continue
		}
		for _, r := range m.dirs {
			if r != "" && strings.Contains(d, r) {
				return true
			}
		}
		if m.defaults && IsDefaultDir(d) {
			return true
		}
	}
	for _, g := range m.files {
		if matchGlob(g, p, base) {
			return true
		}
	}
	return m.defaults && IsDefaultFile(strings.ToLower(p))
}

func matchGlob(g, p, base string) bool {
	if strings.Contains(g, "/") {
		if ok, _ := doublestar.Match(strings.TrimPrefix(g, "/"), strings.TrimPrefix(p, "/")); ok {
			return true
		}
		ok, _ := doublestar.Match("**/"+strings.TrimPrefix(g, "/"), p)
		return ok
	}
	ok, _ := doublestar.Match(g, base)
	return ok
}

// ReadFile parses a gitignore-style file: blank lines and # comments are
// skipped, a trailing slash names a directory, "*.ext" names an extension
// and anything else is a file glob. A missing file yields empty rules.
func ReadFile(name string) (Rules, error) {
	var r Rules
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return r, nil
		}
		return r, err
	}
	defer func() { _ = f.Close() }()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasSuffix(line, "/"):
			r.Directories = append(r.Directories, strings.Trim(line, "/"))
		case strings.HasPrefix(line, "*.") && !strings.ContainsAny(line[2:], "*?[/"):
			r.Extensions = append(r.Extensions, line[1:])
		default:
			r.Files = append(r.Files, line)
		}
	}
	return r, sc.Err()
}

// Load reads an ignore file into a matcher without the built-in defaults.
func Load(name string) (Matcher, error) {
	r, err := ReadFile(name)
	if err != nil {
		return Matcher{}, err
	}
	return New(r, false), nil
}

// LoadDir reads FileName from dir.
func LoadDir(dir string) (Rules, error) {
	return ReadFile(filepath.Join(dir, FileName))
}
