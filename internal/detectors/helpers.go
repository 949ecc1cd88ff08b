package detectors

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule finds every non-overlapping occurrence of a signature in text and
// returns their byte spans.
type Rule interface {
	FindAll(text string) [][2]int
	String() string
}

// regexRule is a Rule backed by a compiled regexp. When group is non-zero
// the span of that capture group is reported instead of the whole match.
type regexRule struct {
	re    *regexp.Regexp
	group int
}

func (r regexRule) FindAll(text string) [][2]int {
	var out [][2]int
	for _, m := range r.re.FindAllStringSubmatchIndex(text, -1) {
		s, e := m[0], m[1]
		if r.group > 0 && 2*r.group+1 < len(m) && m[2*r.group] >= 0 {
			s, e = m[2*r.group], m[2*r.group+1]
		}
		if e <= s {
			continue
		}
		out = append(out, [2]int{s, e})
	}
	return out
}

func (r regexRule) String() string { return r.re.String() }

// Pattern is one entry of the signature table.
type Pattern struct {
	Name        string
	Category    string
	Description string
	Confidence  float64
	Multiline   bool
	// SkipPlaceholders drops matches that look like a mask or a template
	// value, so a redacted file scans clean.
	SkipPlaceholders bool
	Rule             Rule
}

// PatternError reports a custom pattern that failed to compile.
type PatternError struct {
	Index   int
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid custom pattern #%d %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

var reDotAllFlag = regexp.MustCompile(`\(\?[imU]*s[imsU]*[):]`)

// isMultiline reports whether a pattern source can match across newlines.
func isMultiline(src string) bool {
	return reDotAllFlag.MatchString(src) || strings.Contains(src, `\n`) || strings.Contains(src, `[\s\S]`)
}

func single(name, category, desc string, conf float64, expr string) Pattern {
	return Pattern{Name: name, Category: category, Description: desc, Confidence: conf, Rule: regexRule{re: regexp.MustCompile(expr)}}
}

// valueOf is like single but reports only the first capture group.
func valueOf(name, category, desc string, conf float64, expr string) Pattern {
	p := single(name, category, desc, conf, expr)
	p.Rule = regexRule{re: p.Rule.(regexRule).re, group: 1}
	return p
}

func block(name, category, desc string, conf float64, expr string) Pattern {
	p := single(name, category, desc, conf, expr)
	p.Multiline = true
	return p
}

// catchAll is valueOf for broad assignment-shaped signatures.
func catchAll(name, category, desc string, conf float64, expr string) Pattern {
	p := valueOf(name, category, desc, conf, expr)
	p.SkipPlaceholders = true
	return p
}

var placeholderWords = []string{
	"redacted", "changeme", "change_me", "placeholder", "your_", "your-",
	"example", "dummy", "xxxxxxxx", "********", "<", "${", "{{", "%(",
}

// isPlaceholder reports masks such as [REDACTED] or ****, runs of one
// character and well-known template values.
func isPlaceholder(v string) bool {
	if v == "" {
		return true
	}
	if strings.HasPrefix(v, "[") && strings.HasSuffix(v, "]") {
		return true
	}
	if strings.Count(v, v[:1]) == len(v) {
		return true
	}
	lower := strings.ToLower(v)
	for _, w := range placeholderWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}
