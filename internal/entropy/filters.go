package entropy

import (
	"regexp"
	"strings"
)

var placeholderPrefixes = []string{
	"your_", "your-", "yourkey", "example", "sample", "changeme", "change_me", "change-me",
	"placeholder", "dummy", "fake", "test_", "todo", "xxxx", "redacted", "insert_", "replace_",
}

var (
	rePureDigits  = regexp.MustCompile(`^[0-9]+$`)
	rePureLetters = regexp.MustCompile(`^[A-Za-z]+$`)
	reHex         = regexp.MustCompile(`^[a-fA-F0-9]+$`)
	reTemplated   = regexp.MustCompile(`^(?:<[^>]*>|\$\{[^}]*\}|\{\{.*\}\}|%\([^)]*\)s?)$`)
	reLocalURL    = regexp.MustCompile(`(?i)localhost|127\.0\.0\.1|0\.0\.0\.0|\bexample\.(?:com|org|net)\b`)
	rePathPrefix  = regexp.MustCompile(`^(?:\.{1,2}/|~/|/|[A-Za-z]:\\)`)
	rePathSegs    = regexp.MustCompile(`^[a-z0-9_.-]+(?:/[a-z0-9_.-]+){2,}/?$`)
)

// excluded reports whether a candidate value is a known non-secret shape.
func excluded(v string) bool {
	if strings.TrimSpace(v) == "" {
		return true
	}
	if rePureDigits.MatchString(v) || rePureLetters.MatchString(v) {
		return true
	}
	lower := strings.ToLower(v)
	for _, p := range placeholderPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	if reTemplated.MatchString(v) {
		return true
	}
	if reHex.MatchString(v) {
		switch len(v) {
		case 32, 40, 64:
			return true
		}
	}
	if reLocalURL.MatchString(v) {
		return true
	}
	return rePathPrefix.MatchString(v) || rePathSegs.MatchString(v)
}

// passes applies the length window, character class requirements and
// exclusions.
func (o Options) passes(v string) bool {
	if len(v) < o.MinLength || len(v) > o.MaxLength {
		return false
	}
	if alnumRatio(v) < o.Charsets.MinAlnumRatio {
		return false
	}
	if o.Charsets.RequireDigit && !hasDigit(v) {
		return false
	}
	if o.Charsets.RequireMixedCase && !(hasUpper(v) && hasLower(v)) {
		return false
	}
	return !excluded(v)
}
