package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"github.com/leakguard/leakguard/internal/types"
)

type PrintOptions struct {
	NoColor      bool
	Duration     time.Duration
	FilesScanned int
	FilesSkipped int
	Errors       int
}

// OptionsFor fills the footer statistics from a result.
func OptionsFor(r *types.ScanResult, noColor bool) PrintOptions {
	return PrintOptions{
		NoColor:      noColor,
		Duration:     r.Duration(),
		FilesScanned: r.FilesScanned,
		FilesSkipped: r.FilesSkipped,
		Errors:       len(r.Errors),
	}
}

var (
	highStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	medStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	lowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

func sorted(findings []types.Finding) []types.Finding {
	fs := make([]types.Finding, len(findings))
	copy(fs, findings)
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].FilePath != fs[j].FilePath {
			return fs[i].FilePath < fs[j].FilePath
		}
		if fs[i].LineNumber != fs[j].LineNumber {
			return fs[i].LineNumber < fs[j].LineNumber
		}
		return fs[i].ColumnStart < fs[j].ColumnStart
	})
	return fs
}

// PrintTable renders findings as a bordered table followed by a summary
// footer. Matches are always shown truncated.
func PrintTable(w io.Writer, findings []types.Finding, opts PrintOptions) error {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		fmt.Fprintln(w, style(titleStyle, fmt.Sprintf("Findings: %d", len(findings)), opts.NoColor))
		table := tablewriter.NewWriter(w)
		table.Header("SEVERITY", "CATEGORY", "LOCATION", "CONFIDENCE", "MATCH")
		for _, f := range sorted(findings) {
			if err := table.Append(
				severity(f.Severity(), opts.NoColor),
				f.Category,
				location(f),
				fmt.Sprintf("%.2f", f.Confidence),
				f.TruncatedMatch,
			); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	footer(w, findings, opts)
	return nil
}

// PrintText renders one line per finding, for non-interactive output.
func PrintText(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if len(findings) == 0 {
		fmt.Fprintln(w, "No secrets found ✅")
	} else {
		maxCat := 8
		for _, f := range findings {
			if l := len(f.Category); l > maxCat {
				maxCat = l
			}
		}
		fmt.Fprintf(w, "Findings: %d\n", len(findings))
		for _, f := range sorted(findings) {
			fmt.Fprintf(w, "%-6s %-*s %s  %s\n", severity(f.Severity(), opts.NoColor), maxCat, f.Category, location(f), f.TruncatedMatch)
		}
	}
	footer(w, findings, opts)
}

func footer(w io.Writer, findings []types.Finding, opts PrintOptions) {
	if opts.Duration <= 0 && opts.FilesScanned <= 0 {
		return
	}
	counts := CountBySeverity(findings)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings: %d (high: %d, medium: %d, low: %d)\n",
		len(findings), counts[types.SevHigh], counts[types.SevMed], counts[types.SevLow])
	if opts.Duration > 0 {
		fmt.Fprintf(w, "Scan duration: %.2fs\n", opts.Duration.Seconds())
	}
	if opts.FilesScanned > 0 {
		fmt.Fprintf(w, "Files scanned: %d\n", opts.FilesScanned)
	}
	if opts.FilesSkipped > 0 {
		fmt.Fprintf(w, "Files skipped: %d\n", opts.FilesSkipped)
	}
	if opts.Errors > 0 {
		fmt.Fprintf(w, "Files with errors: %d\n", opts.Errors)
	}
}

// CountBySeverity buckets findings by severity.
func CountBySeverity(findings []types.Finding) map[types.Severity]int {
	out := map[types.Severity]int{}
	for _, f := range findings {
		out[f.Severity()]++
	}
	return out
}

func location(f types.Finding) string {
	return fmt.Sprintf("%s:%d:%d", f.FilePath, f.LineNumber, f.ColumnStart+1)
}

func severity(s types.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case types.SevHigh:
		return highStyle.Render(string(s))
	case types.SevMed:
		return medStyle.Render(string(s))
	default:
		return lowStyle.Render(string(s))
	}
}

func style(st lipgloss.Style, s string, noColor bool) string {
	if noColor {
		return s
	}
	return st.Render(s)
}
