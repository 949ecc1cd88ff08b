// Package allowlist exempts known-safe strings from reporting.
package allowlist

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Entry is either a Literal or a Pattern.
type Entry interface {
	Allows(match string) bool
	String() string
}

// Literal allows a match equal to the string.
type Literal string

func (l Literal) Allows(match string) bool { return string(l) == match }
func (l Literal) String() string           { return string(l) }

// Pattern allows a match the compiled expression matches.
type Pattern struct {
	re *regexp.Regexp
}

func (p Pattern) Allows(match string) bool { return p.re.MatchString(match) }
func (p Pattern) String() string           { return "/" + p.re.String() + "/" }

// List is a parsed allowlist.
type List []Entry

// Parse resolves raw entries once. Entries delimited by slashes are compiled
// as regular expressions; one that does not compile is kept as a literal.
func Parse(raw []string, logger zerolog.Logger) List {
	out := make(List, 0, len(raw))
	for _, s := range raw {
		if len(s) >= 2 && strings.HasPrefix(s, "/") && strings.HasSuffix(s, "/") {
			re, err := regexp.Compile(s[1 : len(s)-1])
			if err == nil {
				out = append(out, Pattern{re: re})
				continue
			}
			logger.Warn().Err(err).Str("entry", s).Msg("allowlist regex invalid, treating as literal")
		}
		out = append(out, Literal(s))
	}
	return out
}

// Allows reports whether any entry allows match.
func (l List) Allows(match string) bool {
	for _, e := range l {
		if e.Allows(match) {
			return true
		}
	}
	return false
}
