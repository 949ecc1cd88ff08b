package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/leakguard/leakguard/internal/types"
)

const baselineVersion = 1

// DefaultBaselineFile is written at the repository root.
const DefaultBaselineFile = ".leakguard-baseline.json"

// Baseline holds hashes of accepted findings. Keys ignore line numbers so
// unrelated edits do not resurface a known finding, and no secret is stored.
type Baseline struct {
	Version int             `json:"version"`
	Items   map[string]bool `json:"items"`
}

// LoadBaseline reads a baseline. A missing file yields an empty baseline.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Version: baselineVersion, Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return b, nil
	}
	if err != nil {
		return b, err
	}
	if err := json.Unmarshal(f, &b); err != nil {
		return b, fmt.Errorf("malformed baseline %s: %w", path, err)
	}
	if b.Items == nil {
		b.Items = map[string]bool{}
	}
	return b, nil
}

// NewBaseline accepts every finding; paths are keyed relative to root.
func NewBaseline(root string, findings []types.Finding) Baseline {
	b := Baseline{Version: baselineVersion, Items: map[string]bool{}}
	for _, f := range findings {
		b.Items[baselineKey(root, f)] = true
	}
	return b
}

// SaveBaseline writes b as indented JSON with owner-only permissions.
func SaveBaseline(path string, b Baseline) error {
	buf, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(buf, '\n'), 0o600)
}

// FilterNewFindings drops findings recorded in base.
func FilterNewFindings(root string, findings []types.Finding, base Baseline) []types.Finding {
	out := []types.Finding{}
	for _, f := range findings {
		if !base.Items[baselineKey(root, f)] {
			out = append(out, f)
		}
	}
	return out
}

// Keys lists the baseline entries in a stable order.
func (b Baseline) Keys() []string {
	out := make([]string, 0, len(b.Items))
	for k := range b.Items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func baselineKey(root string, f types.Finding) string {
	p := f.FilePath
	if root != "" {
		if rel, err := filepath.Rel(root, p); err == nil {
			p = rel
		}
	}
	d := xxhash.New()
	_, _ = d.WriteString(filepath.ToSlash(p))
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(f.Category)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(f.Match)
	return fmt.Sprintf("%016x", d.Sum64())
}

// ShouldFail reports whether any finding reaches the failOn severity
// ("low", "medium" or "high"; medium when empty or unknown).
func ShouldFail(findings []types.Finding, failOn string) bool {
	level := map[string]int{"low": 1, "medium": 2, "high": 3}
	th := level[failOn]
	if th == 0 {
		th = 2
	}
	for _, f := range findings {
		if level[string(f.Severity())] >= th {
			return true
		}
	}
	return false
}
