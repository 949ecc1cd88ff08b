package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AuditLog appends events as JSON lines to a file.
type AuditLog struct {
	logPath string
	logger  zerolog.Logger
	mu      sync.Mutex
}

// NewAuditLog places the log inside .git when root is a repository, and
// next to the sources otherwise.
func NewAuditLog(root string, logger zerolog.Logger) *AuditLog {
	gitDir := filepath.Join(root, ".git")
	logPath := filepath.Join(root, ".leakguard_audit.jsonl")
	if st, err := os.Stat(gitDir); err == nil && st.IsDir() {
		logPath = filepath.Join(gitDir, "leakguard_audit.jsonl")
	}
	return Open(logPath, logger)
}

// Open uses an explicit log path.
func Open(path string, logger zerolog.Logger) *AuditLog {
	return &AuditLog{logPath: path, logger: logger.With().Str("component", "audit").Logger()}
}

func (a *AuditLog) Path() string { return a.logPath }

// Notify implements Notifier. Write failures are logged, never returned.
func (a *AuditLog) Notify(e Event) {
	if err := a.LogEvent(e); err != nil {
		a.logger.Warn().Err(err).Str("event", string(e.Kind)).Msg("audit write failed")
	}
}

// LogEvent appends one record.
func (a *AuditLog) LogEvent(e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("%s_%d", e.Kind, e.Timestamp.UnixNano())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// owner-only: records carry file paths and finding metadata
	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(e); err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// LoadHistory returns the recorded events, newest first. Lines that fail to
// decode are skipped.
func (a *AuditLog) LoadHistory() ([]Event, error) {
	f, err := os.Open(a.logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []Event
	decoder := json.NewDecoder(f)
	for decoder.More() {
		var record Event
		if err := decoder.Decode(&record); err != nil {
			break
		}
		records = append(records, record)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}
