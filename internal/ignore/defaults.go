package ignore

import "strings"

var defaultDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
	"bin":          true,
	"obj":          true,
}

// noisy or generated artifacts
var defaultFileSuffixes = []string{
	".lock",
	".min.js", ".map",
	".pb.go", ".gen.go",
}

var defaultFileNames = map[string]bool{
	"package-lock.json": true,
	"pnpm-lock.yaml":    true,
	".ds_store":         true,
	"go.sum":            true,
}

// IsDefaultDir reports whether a directory name is skipped by default.
func IsDefaultDir(name string) bool {
	return defaultDirs[name]
}

// IsDefaultFile reports whether a lower-cased slash path names a file that
// is skipped by default.
func IsDefaultFile(lowerPath string) bool {
	for _, s := range defaultFileSuffixes {
		if strings.HasSuffix(lowerPath, s) {
			return true
		}
	}
	if strings.Contains(lowerPath, ".gen.") {
		return true
	}
	base := lowerPath
	if i := strings.LastIndexByte(lowerPath, '/'); i >= 0 {
		base = lowerPath[i+1:]
	}
	return defaultFileNames[base]
}
