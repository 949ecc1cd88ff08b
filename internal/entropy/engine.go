package entropy

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/leakguard/leakguard/internal/types"
)

// Category is reported on every entropy finding.
const Category = "high-entropy"

// Charsets constrains the character makeup of a candidate.
type Charsets struct {
	MinAlnumRatio    float64 `validate:"min=0,max=1"`
	RequireDigit     bool
	RequireMixedCase bool
}

// Options configures the statistical engine.
type Options struct {
	Threshold float64 `validate:"gt=0,lt=8"`
	MinLength int     `validate:"min=1"`
	MaxLength int     `validate:"gtefield=MinLength"`
	Charsets  Charsets
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Threshold: 4.0,
		MinLength: 20,
		MaxLength: 100,
		Charsets:  Charsets{MinAlnumRatio: 0.5},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Engine scores candidates extracted from each line. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	opts Options
}

// New validates opts and returns an engine.
func New(opts Options) (*Engine, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid entropy options: %w", err)
	}
	return &Engine{opts: opts}, nil
}

func (e *Engine) Options() Options { return e.opts }

// Confidence maps an entropy score to [0,1] and adds the context boosts.
func (e *Engine) Confidence(h float64, kind Kind, secretKey bool) float64 {
	t := e.opts.Threshold
	c := math.Min((h-t)/(8-t), 1)
	c += boost[kind]
	if secretKey {
		c += keyBoost
	}
	return math.Max(0, math.Min(c, 1))
}

type seenKey struct {
	line  int
	match string
}

// Detect reports high-entropy candidates in content ordered by line then
// column. The result depends only on content, path and the options.
func (e *Engine) Detect(content, path string) []types.Finding {
	if content == "" {
		return nil
	}
	lines := types.SplitLines(content)
	seen := map[seenKey]bool{}
	var out []types.Finding
	for i, l := range lines {
		lineNo := i + 1
		for _, c := range extract(l) {
			v := l[c.start:c.end]
			if !e.opts.passes(v) {
				continue
			}
			h := Shannon(v)
			if h < e.opts.Threshold {
				continue
			}
			k := seenKey{lineNo, v}
			if seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, types.Finding{
				Type:           types.TypeEntropy,
				Category:       Category,
				FilePath:       path,
				LineNumber:     lineNo,
				ColumnStart:    c.start,
				ColumnEnd:      c.end,
				Match:          v,
				TruncatedMatch: types.Truncate(v),
				Confidence:     e.Confidence(h, c.kind, c.key != "" && reSecretKey.MatchString(c.key)),
				Context:        types.ContextLines(lines, lineNo, lineNo),
				ContextKind:    string(c.kind),
			})
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
