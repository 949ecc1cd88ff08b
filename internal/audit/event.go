// Package audit records what the scanner and redactor did. The core only
// sees the Notifier interface; sinks live here.
package audit

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/leakguard/leakguard/internal/types"
)

type EventKind string

const (
	ScanCompleted   EventKind = "scan.completed"
	RedactCompleted EventKind = "redact.completed"
	GuardBypassed   EventKind = "guard.bypassed"
)

// Event is one audit record. It never carries a full secret value.
type Event struct {
	Kind           EventKind         `json:"event"`
	ID             string            `json:"id"`
	Timestamp      time.Time         `json:"timestamp"`
	Root           string            `json:"root,omitempty"`
	Summary        *types.Summary    `json:"summary,omitempty"`
	SeverityCounts map[string]int    `json:"severity_counts,omitempty"`
	TopFindings    []FindingSummary  `json:"top_findings,omitempty"`
	Redaction      *RedactionSummary `json:"redaction,omitempty"`
	Reason         string            `json:"reason,omitempty"`
}

type FindingSummary struct {
	Path     string `json:"path"`
	Category string `json:"category"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Preview  string `json:"preview"`
}

type RedactionSummary struct {
	FilesProcessed  int  `json:"files_processed"`
	SecretsRedacted int  `json:"secrets_redacted"`
	BackupsCreated  int  `json:"backups_created"`
	Errors          int  `json:"errors"`
	DryRun          bool `json:"dry_run"`
}

// Notifier receives audit events. Implementations must be safe for
// concurrent use and must not block for long.
type Notifier interface {
	Notify(Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(Event) {}

// Multi fans an event out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

// LogNotifier writes a one-line summary of each event to a logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (l LogNotifier) Notify(e Event) {
	ev := l.Logger.Info().Str("event", string(e.Kind))
	if e.Summary != nil {
		ev = ev.Int("findings", e.Summary.TotalFindings).Int("files", e.Summary.FilesScanned).Int64("duration_ms", e.Summary.ScanDuration)
	}
	if e.Redaction != nil {
		ev = ev.Int("redacted", e.Redaction.SecretsRedacted).Int("files", e.Redaction.FilesProcessed).Bool("dry_run", e.Redaction.DryRun)
	}
	if e.Reason != "" {
		ev = ev.Str("reason", e.Reason)
	}
	ev.Msg("audit")
}

const topFindings = 10

// ScanEvent summarises a finished scan.
func ScanEvent(root string, r *types.ScanResult) Event {
	sum := r.Summary()
	counts := map[string]int{}
	top := make([]FindingSummary, 0, topFindings)
	for _, f := range r.Findings {
		counts[string(f.Severity())]++
		if len(top) < topFindings {
			top = append(top, FindingSummary{
				Path:     f.FilePath,
				Category: f.Category,
				Severity: string(f.Severity()),
				Line:     f.LineNumber,
				Preview:  types.Truncate(f.Match),
			})
		}
	}
	return Event{
		Kind:           ScanCompleted,
		Timestamp:      time.Now(),
		Root:           root,
		Summary:        &sum,
		SeverityCounts: counts,
		TopFindings:    top,
	}
}

// BypassEvent records a skipped pre-commit guard.
func BypassEvent(root, reason string) Event {
	return Event{Kind: GuardBypassed, Timestamp: time.Now(), Root: root, Reason: reason}
}
