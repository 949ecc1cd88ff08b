package entropy

import (
	"regexp"
	"strings"
	"unicode"
)

// Kind names the extractor that proposed a candidate.
type Kind string

const (
	KindEnvironment Kind = "environment"
	KindAssignment  Kind = "assignment"
	KindQuoted      Kind = "quoted"
	KindBase64      Kind = "base64"
	KindGeneric     Kind = "generic"
)

// boost is the confidence added for each extractor kind.
var boost = map[Kind]float64{
	KindEnvironment: 0.3,
	KindBase64:      0.2,
	KindAssignment:  0.15,
	KindGeneric:     0.1,
	KindQuoted:      0.1,
}

// keyBoost is added when the value was assigned to a secret-suggestive key.
const keyBoost = 0.2

type candidate struct {
	start, end int
	kind       Kind
	key        string
}

type extractor struct {
	kind Kind
	find func(line string) []candidate
}

// extractors in precedence order.
var extractors = []extractor{
	{KindEnvironment, findEnvironment},
	{KindAssignment, findAssignments},
	{KindQuoted, findQuoted},
	{KindBase64, findBase64},
	{KindGeneric, findGeneric},
}

var (
	reEnvAssign = regexp.MustCompile(`^\s*(?:export\s+)?([A-Z][A-Z0-9_]*)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s#"']+))`)
	reAssign    = regexp.MustCompile("(?i)([A-Za-z0-9_.\\-]*(?:key|secret|token|passw(?:or)?d|pwd|auth|credential|private|session|cert|salt|signature)[A-Za-z0-9_.\\-]*)[\"']?\\s*(?::=|=>|[:=])\\s*(?:\"([^\"]*)\"|'([^']*)'|`([^`]*)`|([^\\s,;\"'`]+))")
	reQuoted    = regexp.MustCompile("\"([^\"\\\\]*)\"|'([^'\\\\]*)'|`([^`]*)`")
	reBase64Run = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)
	reGeneric   = regexp.MustCompile(`[A-Za-z0-9._\-+=/]{20,}`)

	reSecretKey = regexp.MustCompile(`(?i)key|secret|token|passw(?:or)?d|pwd|auth|credential|private|session|cert|salt|signature`)
)

// firstGroup returns the span of the first participating capture group at
// or after index from.
func firstGroup(m []int, from int) (int, int, bool) {
	for g := from; 2*g+1 < len(m); g++ {
		if m[2*g] >= 0 {
			return m[2*g], m[2*g+1], true
		}
	}
	return 0, 0, false
}

func findEnvironment(line string) []candidate {
	m := reEnvAssign.FindStringSubmatchIndex(line)
	if m == nil {
		return nil
	}
	s, e, ok := firstGroup(m, 2)
	if !ok || e <= s {
		return nil
	}
	return []candidate{{start: s, end: e, kind: KindEnvironment, key: line[m[2]:m[3]]}}
}

func findAssignments(line string) []candidate {
	var out []candidate
	for _, m := range reAssign.FindAllStringSubmatchIndex(line, -1) {
		s, e, ok := firstGroup(m, 2)
		if !ok || e <= s {
			continue
		}
		out = append(out, candidate{start: s, end: e, kind: KindAssignment, key: line[m[2]:m[3]]})
	}
	return out
}

func findQuoted(line string) []candidate {
	var out []candidate
	for _, m := range reQuoted.FindAllStringSubmatchIndex(line, -1) {
		s, e, ok := firstGroup(m, 1)
		if !ok || e <= s {
			continue
		}
		out = append(out, candidate{start: s, end: e, kind: KindQuoted})
	}
	return out
}

func findBase64(line string) []candidate {
	var out []candidate
	for _, sp := range reBase64Run.FindAllStringIndex(line, -1) {
		if looksBase64(line[sp[0]:sp[1]]) {
			out = append(out, candidate{start: sp[0], end: sp[1], kind: KindBase64})
		}
	}
	return out
}

// looksBase64 requires valid padding, a mostly alphanumeric core and mixed
// case letters.
func looksBase64(s string) bool {
	core := strings.TrimRight(s, "=")
	if len(core) != len(s) && len(s)%4 != 0 {
		return false
	}
	if core == "" || alnumRatio(core) < 0.85 {
		return false
	}
	return hasUpper(core) && hasLower(core)
}

func findGeneric(line string) []candidate {
	var out []candidate
	for _, sp := range reGeneric.FindAllStringIndex(line, -1) {
		out = append(out, candidate{start: sp[0], end: sp[1], kind: KindGeneric})
	}
	return out
}

// extract runs every extractor over line. A candidate whose span overlaps
// one proposed by an earlier extractor is dropped.
func extract(line string) []candidate {
	var taken []candidate
	for _, x := range extractors {
		var fresh []candidate
		for _, c := range x.find(line) {
			if !overlapsAny(c, taken) {
				fresh = append(fresh, c)
			}
		}
		taken = append(taken, fresh...)
	}
	return taken
}

func overlapsAny(c candidate, others []candidate) bool {
	for _, o := range others {
		if c.start < o.end && o.start < c.end {
			return true
		}
	}
	return false
}

func alnumRatio(s string) float64 {
	if s == "" {
		return 0
	}
	n := 0
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			n++
		}
	}
	return float64(n) / float64(len(s))
}

func hasUpper(s string) bool { return strings.IndexFunc(s, unicode.IsUpper) >= 0 }
func hasLower(s string) bool { return strings.IndexFunc(s, unicode.IsLower) >= 0 }
func hasDigit(s string) bool { return strings.IndexFunc(s, unicode.IsDigit) >= 0 }
