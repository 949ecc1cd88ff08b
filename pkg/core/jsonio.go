package core

import (
	"encoding/json"
	"io"

	"github.com/leakguard/leakguard/internal/report"
)

// WriteJSON writes result in its serialized contract form.
func WriteJSON(w io.Writer, result *ScanResult) error {
	return report.WriteJSON(w, result)
}

// ReadJSON decodes a result written by WriteJSON, for example to redact
// the findings of an earlier scan.
func ReadJSON(r io.Reader) (*ScanResult, error) {
	var res ScanResult
	if err := json.NewDecoder(r).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MarshalFindings pretty-prints findings as JSON for humans or pipelines.
func MarshalFindings(w io.Writer, findings []Finding) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(findings)
}
