package detectors

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/leakguard/leakguard/internal/types"
)

const customConfidence = 0.8

// Engine runs the signature table against file content. It is immutable
// after New and safe for concurrent use.
type Engine struct {
	patterns []Pattern
}

// New builds an engine from the built-in table plus the given custom
// patterns. A custom pattern that does not compile fails construction with
// a *PatternError naming its index.
func New(custom []string) (*Engine, error) {
	ps := make([]Pattern, 0, len(builtins)+len(custom))
	ps = append(ps, builtins...)
	for i, src := range custom {
		re, err := regexp.Compile(src)
		if err != nil {
			return nil, &PatternError{Index: i, Pattern: src, Err: err}
		}
		ps = append(ps, Pattern{
			Name:        fmt.Sprintf("custom-%d", i),
			Category:    "custom",
			Description: "user-defined pattern",
			Confidence:  customConfidence,
			Multiline:   isMultiline(src),
			Rule:        regexRule{re: re},
		})
	}
	return &Engine{patterns: ps}, nil
}

// Patterns returns a copy of the active signature table.
func (e *Engine) Patterns() []Pattern {
	out := make([]Pattern, len(e.patterns))
	copy(out, e.patterns)
	return out
}

type seenKey struct {
	line  int
	match string
}

// Detect reports every signature match in content. Identical (line, match)
// pairs are reported once, attributed to the first signature in table order.
// Results are ordered by line then column.
func (e *Engine) Detect(content, path string) []types.Finding {
	if content == "" {
		return nil
	}
	lines := types.SplitLines(content)
	var starts []int
	seen := map[seenKey]bool{}
	var out []types.Finding

	emit := func(p Pattern, lineNo, col int, match string) {
		if p.SkipPlaceholders && isPlaceholder(match) {
			return
		}
		k := seenKey{lineNo, match}
		if seen[k] {
			return
		}
		seen[k] = true
		last := lineNo + strings.Count(match, "\n")
		out = append(out, types.Finding{
			Type:           types.TypePattern,
			Category:       p.Category,
			FilePath:       path,
			LineNumber:     lineNo,
			ColumnStart:    col,
			ColumnEnd:      col + len(match),
			Match:          match,
			TruncatedMatch: types.Truncate(match),
			Confidence:     p.Confidence,
			Context:        types.ContextLines(lines, lineNo, last),
			RuleName:       p.Name,
		})
	}

	for _, p := range e.patterns {
		if p.Multiline {
			if starts == nil {
				starts = types.LineStarts(content)
			}
			for _, sp := range p.Rule.FindAll(content) {
				ln, col := types.Position(starts, sp[0])
				emit(p, ln, col, content[sp[0]:sp[1]])
			}
			continue
		}
		for i, l := range lines {
			for _, sp := range p.Rule.FindAll(l) {
				emit(p, i+1, sp[0], l[sp[0]:sp[1]])
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LineNumber != out[j].LineNumber {
			return out[i].LineNumber < out[j].LineNumber
		}
		return out[i].ColumnStart < out[j].ColumnStart
	})
	return out
}
