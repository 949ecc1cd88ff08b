package engine

import (
	"sort"

	"github.com/leakguard/leakguard/internal/types"
)

// Merge removes duplicates that survived the per-engine passes. Identical
// findings collapse to one, with pattern findings taking precedence, and
// entropy findings that lie inside a pattern finding's span in the same file
// are dropped. The result is ordered by file, line and column.
func Merge(fs []types.Finding) []types.Finding {
	seen := make(map[types.Key]bool, len(fs))
	byFile := map[string][]types.Finding{}
	out := make([]types.Finding, 0, len(fs))

	for _, f := range fs {
		if f.Type == types.TypeEntropy || seen[f.Key()] {
			continue
		}
		seen[f.Key()] = true
		byFile[f.FilePath] = append(byFile[f.FilePath], f)
		out = append(out, f)
	}
	for _, f := range fs {
		if f.Type != types.TypeEntropy || seen[f.Key()] {
			continue
		}
		if coveredBy(f, byFile[f.FilePath]) {
			continue
		}
		seen[f.Key()] = true
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.LineNumber != b.LineNumber {
			return a.LineNumber < b.LineNumber
		}
		if a.ColumnStart != b.ColumnStart {
			return a.ColumnStart < b.ColumnStart
		}
		return a.Type == types.TypePattern && b.Type != types.TypePattern
	})
	return out
}

func coveredBy(f types.Finding, patterns []types.Finding) bool {
	for _, p := range patterns {
		if p.Contains(f) {
			return true
		}
	}
	return false
}
