package report

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/leakguard/leakguard/internal/types"
)

// ToolVersion is reported as the SARIF driver version.
var ToolVersion = "dev"

type sarif struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	RuleIndex           int               `json:"ruleIndex"`
	Level               string            `json:"level"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLoc        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLoc struct {
	PhysicalLocation sarifPhys `json:"physicalLocation"`
}

type sarifPhys struct {
	ArtifactLocation sarifArt    `json:"artifactLocation"`
	Region           sarifRegion `json:"region"`
}

type sarifArt struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine"`
	StartColumn int           `json:"startColumn"`
	Snippet     *sarifMessage `json:"snippet,omitempty"`
}

func sevToLevel(s types.Severity) string {
	switch s {
	case types.SevHigh:
		return "error"
	case types.SevMed:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF writes the result as SARIF 2.1.0. Snippets carry the truncated
// match only, and run properties carry the scan statistics.
func WriteSARIF(w io.Writer, r *types.ScanResult, descriptions map[string]string) error {
	findings := sorted(r.Findings)

	ruleIndex := map[string]int{}
	var ids []string
	for _, f := range findings {
		if _, ok := ruleIndex[f.Category]; !ok {
			ruleIndex[f.Category] = 0
			ids = append(ids, f.Category)
		}
	}
	sort.Strings(ids)
	rules := make([]sarifRule, len(ids))
	for i, id := range ids {
		ruleIndex[id] = i
		desc := descriptions[id]
		if desc == "" {
			desc = id
		}
		rules[i] = sarifRule{ID: id, ShortDescription: sarifMessage{Text: desc}}
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    "leakguard",
			Version: ToolVersion,
			Rules:   rules,
		}},
		Results: []sarifResult{},
		Properties: map[string]any{
			"filesScanned": r.FilesScanned,
			"filesSkipped": r.FilesSkipped,
			"totalLines":   r.TotalLines,
			"errors":       len(r.Errors),
		},
	}
	for _, f := range findings {
		run.Results = append(run.Results, sarifResult{
			RuleID:    f.Category,
			RuleIndex: ruleIndex[f.Category],
			Level:     sevToLevel(f.Severity()),
			Message:   sarifMessage{Text: f.Category + " detected"},
			Locations: []sarifLoc{{
				PhysicalLocation: sarifPhys{
					ArtifactLocation: sarifArt{URI: f.FilePath},
					Region: sarifRegion{
						StartLine:   f.LineNumber,
						StartColumn: f.ColumnStart + 1,
						Snippet:     &sarifMessage{Text: f.TruncatedMatch},
					},
				},
			}},
			PartialFingerprints: map[string]string{"leakguard/v1": f.Fingerprint()},
		})
	}
	doc := sarif{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
