package types

import (
	"strconv"
	"strings"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
)

// FindingType tells which engine produced a finding.
type FindingType string

const (
	TypePattern FindingType = "pattern"
	TypeEntropy FindingType = "entropy"
)

// Severity is a coarse-grained risk level derived from confidence.
type Severity string

const (
	SevLow  Severity = "low"
	SevMed  Severity = "medium"
	SevHigh Severity = "high"
)

// Finding describes one detected secret occurrence. Columns are 0-indexed
// byte offsets into the line and ColumnEnd is exclusive. For matches that
// span several lines ColumnEnd is ColumnStart+len(Match).
type Finding struct {
	Type           FindingType `json:"type"`
	Category       string      `json:"category"`
	FilePath       string      `json:"filePath"`
	LineNumber     int         `json:"lineNumber"`
	ColumnStart    int         `json:"columnStart"`
	ColumnEnd      int         `json:"columnEnd"`
	Match          string      `json:"match"`
	TruncatedMatch string      `json:"truncatedMatch"`
	Confidence     float64     `json:"confidence"`
	Context        []string    `json:"context"`
	ContextKind    string      `json:"contextKind,omitempty"`
	RuleName       string      `json:"rule,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Key is the identity of a finding.
type Key struct {
	FilePath    string
	LineNumber  int
	ColumnStart int
	ColumnEnd   int
	Match       string
}

// Key returns the dedup identity (file, line, columns, match).
func (f Finding) Key() Key {
	return Key{FilePath: f.FilePath, LineNumber: f.LineNumber, ColumnStart: f.ColumnStart, ColumnEnd: f.ColumnEnd, Match: f.Match}
}

// Fingerprint hashes the identity into a short stable hex string.
func (f Finding) Fingerprint() string {
	var b strings.Builder
	b.WriteString(f.FilePath)
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(f.LineNumber))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(f.ColumnStart))
	b.WriteByte(0)
	b.WriteString(strconv.Itoa(f.ColumnEnd))
	b.WriteByte(0)
	b.WriteString(f.Match)
	return hex16(xxhash.Sum64String(b.String()))
}

// End returns the line and column just past the last byte of the match.
func (f Finding) End() (line, col int) {
	n := strings.Count(f.Match, "\n")
	if n == 0 {
		return f.LineNumber, f.ColumnEnd
	}
	return f.LineNumber + n, len(f.Match) - strings.LastIndexByte(f.Match, '\n') - 1
}

// Contains reports whether g's span lies inside f's span in the same file.
func (f Finding) Contains(g Finding) bool {
	if f.FilePath != g.FilePath {
		return false
	}
	if before(g.LineNumber, g.ColumnStart, f.LineNumber, f.ColumnStart) {
		return false
	}
	fl, fc := f.End()
	gl, gc := g.End()
	return !before(fl, fc, gl, gc)
}

func before(l1, c1, l2, c2 int) bool {
	return l1 < l2 || (l1 == l2 && c1 < c2)
}

// Severity buckets the confidence for reporting and exit codes.
func (f Finding) Severity() Severity {
	switch {
	case f.Confidence >= 0.85:
		return SevHigh
	case f.Confidence >= 0.6:
		return SevMed
	default:
		return SevLow
	}
}

// Truncate returns a display form of a secret that never shows it whole.
func Truncate(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	switch {
	case len(s) <= 8:
		return strings.Repeat("*", len(s))
	case len(s) <= 16:
		return s[:3] + "..." + s[len(s)-2:]
	default:
		return s[:6] + "..." + s[len(s)-4:]
	}
}

func hex16(sum uint64) string {
	const digits = "0123456789abcdef"
	var buf [16]byte
	for i := 15; i >= 0; i-- {
		buf[i] = digits[sum&0xF]
		sum >>= 4
	}
	return string(buf[:])
}
