package engine

import (
	"regexp"
	"strings"

	"github.com/leakguard/leakguard/internal/types"
)

// Inline directives:
//
//	leakguard:ignore             suppresses findings on the same line
//	leakguard:ignore-next-line   suppresses findings on the following line
//	leakguard:ignore-start/-end  suppress every line in between
//	leakguard:ignore-file        skips the whole file
var reDirective = regexp.MustCompile(`leakguard:\s?(ignore-start|ignore-end|ignore-next-line|ignore-file|ignore)\b`)

func hasFileDirective(content string) bool {
	if !strings.Contains(content, "leakguard:") {
		return false
	}
	for _, m := range reDirective.FindAllStringSubmatch(content, -1) {
		if m[1] == "ignore-file" {
			return true
		}
	}
	return false
}

// suppressedLines returns the 1-indexed lines silenced by directives.
func suppressedLines(content string) map[int]bool {
	if !strings.Contains(content, "leakguard:") {
		return nil
	}
	out := map[int]bool{}
	region, skipNext := false, false
	for i, l := range types.SplitLines(content) {
		n := i + 1
		d := ""
		if m := reDirective.FindStringSubmatch(l); m != nil {
			d = m[1]
		}
		switch {
		case d == "ignore-start":
			region = true
			out[n] = true
		case d == "ignore-end":
			region = false
			out[n] = true
		case region:
			out[n] = true
		case d == "ignore-next-line":
			skipNext = true
			out[n] = true
		case skipNext:
			skipNext = false
			out[n] = true
		case d == "ignore":
			out[n] = true
		}
	}
	return out
}

// suppress drops findings whose first line is silenced by a directive.
func suppress(content string, fs []types.Finding) []types.Finding {
	lines := suppressedLines(content)
	if len(lines) == 0 {
		return fs
	}
	var out []types.Finding
	for _, f := range fs {
		if lines[f.LineNumber] {
			continue
		}
		out = append(out, f)
	}
	return out
}
