package core

import (
	"context"
	"fmt"
	"time"

	"github.com/leakguard/leakguard/internal/engine"
	"github.com/leakguard/leakguard/internal/redact"
	"github.com/leakguard/leakguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
type (
	Config         = engine.Config
	EntropyConfig  = engine.EntropyConfig
	WalkOptions    = engine.WalkOptions
	Finding        = types.Finding
	ScanResult     = types.ScanResult
	FileError      = types.FileError
	RedactorConfig = redact.Config
	RedactOptions  = redact.Options
	RedactReport   = redact.Report
)

// SecretScanner scans files with the built-in signatures, any custom
// patterns and the entropy engine.
type SecretScanner struct {
	s *engine.Scanner
}

// NewSecretScanner validates cfg and compiles the detection engines.
func NewSecretScanner(cfg Config) (*SecretScanner, error) {
	s, err := engine.New(cfg)
	if err != nil {
		return nil, err
	}
	return &SecretScanner{s: s}, nil
}

// ScanFiles scans the given paths. It never fails as a whole; per-file
// problems are reported on the result.
func (s *SecretScanner) ScanFiles(paths []string) *ScanResult {
	return s.s.ScanFiles(paths)
}

// ScanDir walks root and scans every selected file.
func (s *SecretScanner) ScanDir(root string, opts WalkOptions) (*ScanResult, error) {
	paths, err := engine.Walk(root, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return s.s.ScanFiles(paths), nil
}

// ScanContent runs detection on in-memory content attributed to path.
func (s *SecretScanner) ScanContent(path, content string) []Finding {
	return s.s.ScanContent(path, content)
}

// ScanWithTimeout runs ScanFiles and gives up waiting after d. On timeout
// the partial work is discarded and context.DeadlineExceeded is returned;
// the scan itself is not interrupted.
func (s *SecretScanner) ScanWithTimeout(paths []string, d time.Duration) (*ScanResult, error) {
	if d <= 0 {
		return s.ScanFiles(paths), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return s.ScanContext(ctx, paths)
}

// ScanContext is ScanWithTimeout for an arbitrary context.
func (s *SecretScanner) ScanContext(ctx context.Context, paths []string) (*ScanResult, error) {
	done := make(chan *ScanResult, 1)
	go func() { done <- s.s.ScanFiles(paths) }()
	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("scan abandoned: %w", ctx.Err())
	}
}

// SecretRedactor rewrites files to remove recorded findings.
type SecretRedactor struct {
	r *redact.Redactor
}

func NewSecretRedactor(cfg RedactorConfig) *SecretRedactor {
	return &SecretRedactor{r: redact.New(cfg)}
}

// RedactSecrets redacts every finding in result. Problems are reported per
// file on the returned report.
func (r *SecretRedactor) RedactSecrets(result *ScanResult, opts RedactOptions) RedactReport {
	return r.r.Redact(result, opts)
}

// Restore puts back the backups of paths and removes them.
func (r *SecretRedactor) Restore(paths []string) RedactReport {
	return r.r.RestoreAll(paths)
}

// Cleanup deletes the backups of paths.
func (r *SecretRedactor) Cleanup(paths []string) RedactReport {
	return r.r.Cleanup(paths)
}

// FindBackups lists the files under root that have a backup.
func FindBackups(root string) ([]string, error) { return redact.FindBackups(root) }
