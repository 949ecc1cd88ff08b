package types

import (
	"encoding/json"
	"time"
)

// FileError records a non-fatal problem with a single file.
type FileError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

func (e FileError) Error() string { return e.Path + ": " + e.Err }

// ScanResult aggregates the findings and statistics of one scan pass.
// Only the orchestrator mutates it; once finalized it is read-only.
type ScanResult struct {
	Findings     []Finding
	FilesScanned int
	FilesSkipped int
	TotalLines   int
	Errors       []FileError
	StartedAt    time.Time
	FinishedAt   time.Time

	finalized bool
}

// Summary is the aggregate block of the serialized result.
type Summary struct {
	TotalFindings    int   `json:"totalFindings"`
	HasSecrets       bool  `json:"hasSecrets"`
	FilesScanned     int   `json:"filesScanned"`
	FilesWithSecrets int   `json:"filesWithSecrets"`
	TotalLines       int   `json:"totalLines"`
	ScanDuration     int64 `json:"scanDuration"` // milliseconds
}

// NewScanResult starts an empty result.
func NewScanResult(started time.Time) *ScanResult {
	return &ScanResult{Findings: []Finding{}, StartedAt: started}
}

// AddFile records one scanned file with its line count and findings.
func (r *ScanResult) AddFile(lines int, findings []Finding) {
	if r.finalized {
		return
	}
	r.FilesScanned++
	r.TotalLines += lines
	r.Findings = append(r.Findings, findings...)
}

// AddSkipped counts a file filtered out by ignore rules or binary checks.
func (r *ScanResult) AddSkipped() {
	if r.finalized {
		return
	}
	r.FilesSkipped++
}

// AddError records a per-file failure.
func (r *ScanResult) AddError(path string, err error) {
	if r.finalized || err == nil {
		return
	}
	r.Errors = append(r.Errors, FileError{Path: path, Err: err.Error()})
}

// Finalize replaces the findings with their merged form and stamps the end time.
func (r *ScanResult) Finalize(finished time.Time, findings []Finding) {
	if r.finalized {
		return
	}
	if findings == nil {
		findings = []Finding{}
	}
	r.Findings = findings
	r.FinishedAt = finished
	r.finalized = true
}

// Finalized reports whether Finalize has run.
func (r *ScanResult) Finalized() bool { return r.finalized }

func (r *ScanResult) HasSecrets() bool { return len(r.Findings) > 0 }

// FilesWithSecrets counts distinct files with at least one finding.
func (r *ScanResult) FilesWithSecrets() int {
	seen := map[string]bool{}
	for _, f := range r.Findings {
		seen[f.FilePath] = true
	}
	return len(seen)
}

func (r *ScanResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ByFile groups findings by file path, preserving order within each file.
func (r *ScanResult) ByFile() map[string][]Finding {
	out := map[string][]Finding{}
	for _, f := range r.Findings {
		out[f.FilePath] = append(out[f.FilePath], f)
	}
	return out
}

func (r *ScanResult) Summary() Summary {
	return Summary{
		TotalFindings:    len(r.Findings),
		HasSecrets:       r.HasSecrets(),
		FilesScanned:     r.FilesScanned,
		FilesWithSecrets: r.FilesWithSecrets(),
		TotalLines:       r.TotalLines,
		ScanDuration:     r.Duration().Milliseconds(),
	}
}

type scanResultJSON struct {
	Findings []Finding   `json:"findings"`
	Summary  Summary     `json:"summary"`
	Errors   []FileError `json:"errors,omitempty"`
}

// MarshalJSON emits the stable reporter contract.
func (r *ScanResult) MarshalJSON() ([]byte, error) {
	fs := r.Findings
	if fs == nil {
		fs = []Finding{}
	}
	return json.Marshal(scanResultJSON{Findings: fs, Summary: r.Summary(), Errors: r.Errors})
}

// UnmarshalJSON reads a result written by MarshalJSON, for example a saved
// scan handed to the redaction flow. The result comes back finalized.
func (r *ScanResult) UnmarshalJSON(b []byte) error {
	var in scanResultJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*r = ScanResult{
		Findings:     in.Findings,
		FilesScanned: in.Summary.FilesScanned,
		TotalLines:   in.Summary.TotalLines,
		Errors:       in.Errors,
		finalized:    true,
	}
	if r.Findings == nil {
		r.Findings = []Finding{}
	}
	return nil
}
