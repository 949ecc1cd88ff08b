// Package redact rewrites files in place, replacing recorded findings with a
// mask token, and manages the backups that make the rewrite reversible.
package redact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leakguard/leakguard/internal/audit"
	"github.com/leakguard/leakguard/internal/types"
)

const (
	// BackupSuffix is appended to the original path to name its backup.
	BackupSuffix = ".leakguard.bak"
	DefaultMask  = "[REDACTED]"

	defaultMaxConcurrency = 10
)

// Options controls one redaction pass.
type Options struct {
	CreateBackups bool
	Mask          string
	DryRun        bool
}

// Config configures a Redactor.
type Config struct {
	MaxConcurrency int
	Notifier       audit.Notifier
	Logger         zerolog.Logger
}

// FileDetail is the outcome for one file.
type FileDetail struct {
	Path       string `json:"path"`
	Redacted   int    `json:"redacted"`
	Skipped    int    `json:"skipped"`
	BackupPath string `json:"backupPath,omitempty"`
	// BackupKept is set when an earlier backup was left in place instead
	// of being overwritten with already redacted content.
	BackupKept bool     `json:"backupKept,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
	// Changed reports that the file was (or in a dry run would be) rewritten.
	Changed bool `json:"changed"`
}

// Report aggregates a redaction, restore or cleanup pass.
type Report struct {
	FilesProcessed  int               `json:"filesProcessed"`
	SecretsRedacted int               `json:"secretsRedacted"`
	BackupsCreated  int               `json:"backupsCreated"`
	Errors          []types.FileError `json:"errors,omitempty"`
	Files           []FileDetail      `json:"files"`
}

// Redactor applies redactions. It holds no per-run state.
type Redactor struct {
	limit    int
	notifier audit.Notifier
	logger   zerolog.Logger
}

func New(cfg Config) *Redactor {
	r := &Redactor{
		limit:    cfg.MaxConcurrency,
		notifier: cfg.Notifier,
		logger:   cfg.Logger.With().Str("component", "redactor").Logger(),
	}
	if r.limit <= 0 {
		r.limit = defaultMaxConcurrency
	}
	if r.notifier == nil {
		r.notifier = audit.Nop{}
	}
	return r
}

// BackupPath names the backup of p.
func BackupPath(p string) string { return p + BackupSuffix }

// Redact rewrites every file referenced by result. Files are processed
// concurrently; problems are recorded per file and never abort the pass.
func (r *Redactor) Redact(result *types.ScanResult, opts Options) Report {
	if opts.Mask == "" {
		opts.Mask = DefaultMask
	}
	byFile := result.ByFile()
	paths := make([]string, 0, len(byFile))
	for p := range byFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	details := make([]FileDetail, len(paths))
	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			details[i] = r.RedactFile(p, byFile[p], opts)
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{Files: details}
	for _, d := range details {
		if d.Error != "" {
			rep.Errors = append(rep.Errors, types.FileError{Path: d.Path, Err: d.Error})
			continue
		}
		rep.FilesProcessed++
		rep.SecretsRedacted += d.Redacted
		if d.BackupPath != "" && !d.BackupKept {
			rep.BackupsCreated++
		}
	}

	r.logger.Debug().
		Int("files", rep.FilesProcessed).
		Int("redacted", rep.SecretsRedacted).
		Int("backups", rep.BackupsCreated).
		Int("errors", len(rep.Errors)).
		Bool("dry_run", opts.DryRun).
		Msg("redaction completed")
	r.notifier.Notify(audit.Event{
		Kind: audit.RedactCompleted,
		Redaction: &audit.RedactionSummary{
			FilesProcessed:  rep.FilesProcessed,
			SecretsRedacted: rep.SecretsRedacted,
			BackupsCreated:  rep.BackupsCreated,
			Errors:          len(rep.Errors),
			DryRun:          opts.DryRun,
		},
	})
	return rep
}

// RedactFile applies findings to one file.
func (r *Redactor) RedactFile(path string, findings []types.Finding, opts Options) FileDetail {
	if opts.Mask == "" {
		opts.Mask = DefaultMask
	}
	d := FileDetail{Path: path}
	info, err := os.Stat(path)
	if err != nil {
		d.Error = err.Error()
		return d
	}
	if info.IsDir() {
		d.Error = fmt.Sprintf("%s is a directory", path)
		return d
	}
	orig, err := os.ReadFile(path)
	if err != nil {
		d.Error = err.Error()
		return d
	}

	out, n, warnings := Apply(string(orig), findings, opts.Mask)
	d.Redacted = n
	d.Skipped = len(findings) - n
	d.Warnings = warnings
	if n == 0 {
		return d
	}
	d.Changed = true
	if opts.DryRun {
		return d
	}

	mode := info.Mode().Perm()
	if opts.CreateBackups {
		bp := BackupPath(path)
		switch err := createWithMode(bp, orig, mode); {
		case errors.Is(err, fs.ErrExist) && isRegularFile(bp):
			// the existing backup is the oldest copy of the original
			r.logger.Debug().Str("path", path).Msg("keeping existing backup")
			d.BackupKept = true
		case errors.Is(err, fs.ErrExist):
			return FileDetail{Path: path, Skipped: len(findings), Error: fmt.Sprintf("backup failed: %s is not a regular file", bp)}
		case err != nil:
			r.logger.Warn().Err(err).Str("path", path).Msg("backup failed, file left untouched")
			return FileDetail{Path: path, Skipped: len(findings), Error: fmt.Sprintf("backup failed: %v", err)}
		}
		d.BackupPath = bp
	}
	if err := writeWithMode(path, []byte(out), mode); err != nil {
		d.Error = fmt.Sprintf("write failed: %v", err)
		d.Changed = false
		d.Redacted = 0
		d.Skipped = len(findings)
	}
	return d
}

// Apply replaces each finding in content with mask and returns the new
// content, the number of findings replaced and a warning for each finding
// that could not be located. Findings are applied from the end of the
// content backwards so earlier positions stay valid.
func Apply(content string, findings []types.Finding, mask string) (string, int, []string) {
	fs := make([]types.Finding, len(findings))
	copy(fs, findings)
	sort.SliceStable(fs, func(i, j int) bool {
		if fs[i].LineNumber != fs[j].LineNumber {
			return fs[i].LineNumber > fs[j].LineNumber
		}
		return fs[i].ColumnStart > fs[j].ColumnStart
	})

	n := 0
	var warnings []string
	for _, f := range fs {
		at, ok := locate(content, f)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("line %d: %s not found (%s)", f.LineNumber, types.Truncate(f.Match), f.Category))
			continue
		}
		content = content[:at] + mask + content[at+len(f.Match):]
		n++
	}
	return content, n, warnings
}

// locate finds the byte offset of f.Match: first at the recorded position,
// then anywhere within the recorded line (extended by the match's own line
// count).
func locate(content string, f types.Finding) (int, bool) {
	if f.Match == "" || f.LineNumber < 1 {
		return 0, false
	}
	starts := types.LineStarts(content)
	if f.LineNumber > len(starts) {
		return 0, false
	}
	lineStart := starts[f.LineNumber-1]

	at := lineStart + f.ColumnStart
	if f.ColumnStart >= 0 && at+len(f.Match) <= len(content) && content[at:at+len(f.Match)] == f.Match {
		return at, true
	}

	last := f.LineNumber - 1 + strings.Count(f.Match, "\n")
	regionEnd := len(content)
	if last+1 < len(starts) {
		regionEnd = starts[last+1] - 1
	}
	if i := strings.Index(content[lineStart:regionEnd], f.Match); i >= 0 {
		return lineStart + i, true
	}
	return 0, false
}

// createWithMode writes a new file and fails with fs.ErrExist when path is
// already present.
func createWithMode(path string, b []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return err
	}
	return os.Chmod(path, mode)
}

func isRegularFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

func writeWithMode(path string, b []byte, mode os.FileMode) error {
	if err := os.WriteFile(path, b, mode); err != nil {
		return err
	}
	return os.Chmod(path, mode)
}
