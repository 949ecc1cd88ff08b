package ignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreMatch(t *testing.T) {
	dir := t.TempDir()
	ig := filepath.Join(dir, FileName)
	content := "node_modules/\n*.pem\n# comment\n\nsecret.env\nconfig/**/*.local.yml\n"
	if err := os.WriteFile(ig, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(ig)
	if err != nil {
		t.Fatal(err)
	}
	cases := map[string]bool{
		"node_modules/pkg/index.js": true,
		"certs/key.pem":             true,
		"certs/KEY.PEM":             true,
		"secret.env":                true,
		"deploy/secret.env":         true,
		"config/dev/db.local.yml":   true,
		"src/app.go":                false,
		"node_modules.txt":          false,
		"config/dev/db.yml":         false,
	}
	for p, want := range cases {
		if got := m.Match(p); got != want {
			t.Fatalf("Match(%q)=%v want %v", p, got, want)
		}
	}
}

func TestReadFileMissingIsEmpty(t *testing.T) {
	r, err := ReadFile(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.True(t, r.Empty())
}

func TestDirectoryRuleIsSubstring(t *testing.T) {
	m := New(Rules{Directories: []string{"fixture"}}, false)
	assert.True(t, m.Match("internal/testfixtures/a.go"))
	assert.True(t, m.Match(filepath.Join("a", "fixture", "b.txt")))
	assert.False(t, m.Match("fixture.go"), "only directory components are compared")
}

func TestExtensionNormalized(t *testing.T) {
	m := New(Rules{Extensions: []string{"LOG", ".tmp", " "}}, false)
	assert.True(t, m.Match("var/app.log"))
	assert.True(t, m.Match("x.TMP"))
	assert.False(t, m.Match("catalog"))
}

func TestDefaults(t *testing.T) {
	m := New(Rules{}, true)
	assert.True(t, m.Match("web/node_modules/x/index.js"))
	assert.True(t, m.Match("vendor/github.com/a/b.go"))
	assert.True(t, m.Match("yarn.lock"))
	assert.True(t, m.Match("static/app.min.js"))
	assert.True(t, m.Match("api/v1/service.pb.go"))
	assert.False(t, m.Match("src/layout/page.go"))
	assert.False(t, m.Match(".github/workflows/ci.yml"))

	assert.False(t, New(Rules{}, false).Match("yarn.lock"))
}

func TestMerge(t *testing.T) {
	a := Rules{Files: []string{"a"}}
	b := Rules{Files: []string{"b"}, Extensions: []string{".x"}}
	m := a.Merge(b)
	assert.Equal(t, []string{"a", "b"}, m.Files)
	assert.Equal(t, []string{".x"}, m.Extensions)
	assert.Equal(t, []string{"a"}, a.Files)
}

func TestAppendGitignore(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(p, []byte("dist/"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AppendGitignore(dir, "*.leakguard.bak"); err != nil {
		t.Fatalf("AppendGitignore: %v", err)
	}
	if err := AppendGitignore(dir, "*.leakguard.bak"); err != nil {
		t.Fatalf("AppendGitignore second: %v", err)
	}
	b, _ := os.ReadFile(p)
	if string(b) != "dist/\n*.leakguard.bak\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}

	fresh := t.TempDir()
	if err := AppendGitignore(fresh, "x"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b, _ := os.ReadFile(filepath.Join(fresh, ".gitignore")); string(b) != "x\n" {
		t.Fatalf("unexpected content: %q", string(b))
	}
}
