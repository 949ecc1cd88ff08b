package types

import (
	"sort"
	"strings"
)

// SplitLines splits content on '\n' and drops a trailing '\r' from each
// line. Byte offsets within a line are unchanged by the trim.
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// LineStarts returns the byte offset at which each line begins.
func LineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// Position converts an absolute byte offset into a 1-indexed line and a
// 0-indexed column using the table from LineStarts.
func Position(starts []int, offset int) (line, col int) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, offset - starts[i]
}

// ContextLines returns the line before first, lines first..last and the line
// after last. Line numbers are 1-indexed and clamped to the slice.
func ContextLines(lines []string, first, last int) []string {
	lo := first - 2
	if lo < 0 {
		lo = 0
	}
	hi := last + 1
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo >= hi {
		return []string{}
	}
	out := make([]string, hi-lo)
	copy(out, lines[lo:hi])
	return out
}
