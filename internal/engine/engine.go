package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/leakguard/leakguard/internal/allowlist"
	"github.com/leakguard/leakguard/internal/audit"
	"github.com/leakguard/leakguard/internal/detectors"
	"github.com/leakguard/leakguard/internal/entropy"
	"github.com/leakguard/leakguard/internal/ignore"
	"github.com/leakguard/leakguard/internal/types"
)

// DefaultMaxConcurrency bounds in-flight file scans when Config leaves it unset.
const DefaultMaxConcurrency = 10

// EntropyConfig tunes or disables the statistical engine. A zero Options
// value selects entropy.DefaultOptions.
type EntropyConfig struct {
	entropy.Options
	Disabled bool
}

// Config controls a Scanner. It is expected to be resolved by the caller
// (see internal/config); New only checks ranges.
type Config struct {
	// Root is the directory ignore rules are evaluated relative to.
	Root            string
	CustomPatterns  []string
	Entropy         EntropyConfig
	Ignore          ignore.Rules
	DefaultExcludes bool
	Allowlist       []string
	MaxConcurrency  int     `validate:"gte=0"`
	MaxBytes        int64   `validate:"gte=0"`
	MinConfidence   float64 `validate:"gte=0,lte=1"`
	Notifier        audit.Notifier
	Logger          zerolog.Logger
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Scanner runs both engines over files with bounded concurrency. It is safe
// to reuse across scans.
type Scanner struct {
	cfg      Config
	patterns *detectors.Engine
	entropy  *entropy.Engine
	ignore   ignore.Matcher
	allow    allowlist.List
	notifier audit.Notifier
	logger   zerolog.Logger
}

// New builds a Scanner. Invalid custom patterns or entropy options fail
// construction.
func New(cfg Config) (*Scanner, error) {
	if err := validate.StructExcept(cfg, "Entropy"); err != nil {
		return nil, fmt.Errorf("invalid scanner config: %w", err)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	logger := cfg.Logger.With().Str("component", "scanner").Logger()

	pe, err := detectors.New(cfg.CustomPatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pattern engine: %w", err)
	}
	s := &Scanner{
		cfg:      cfg,
		patterns: pe,
		ignore:   ignore.New(cfg.Ignore, cfg.DefaultExcludes),
		allow:    allowlist.Parse(cfg.Allowlist, logger),
		notifier: cfg.Notifier,
		logger:   logger,
	}
	if !cfg.Entropy.Disabled {
		opts := cfg.Entropy.Options
		if opts == (entropy.Options{}) {
			opts = entropy.DefaultOptions()
		}
		ee, err := entropy.New(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize entropy engine: %w", err)
		}
		s.entropy = ee
	}
	if s.notifier == nil {
		s.notifier = audit.Nop{}
	}
	return s, nil
}

// Patterns exposes the active signature table.
func (s *Scanner) Patterns() []detectors.Pattern { return s.patterns.Patterns() }

type fileStatus int

const (
	scanned fileStatus = iota
	skipped
	failed
)

type fileOutcome struct {
	status   fileStatus
	lines    int
	findings []types.Finding
	err      error
}

// Blob is in-memory file content, such as a staged index entry.
type Blob struct {
	Path string
	Data []byte
}

type task struct {
	path string
	load func() ([]byte, error)
}

// ScanFiles scans paths and returns a finalized result. Per-file problems
// are recorded on the result; the batch never aborts. Tasks are admitted in
// submission order and at most MaxConcurrency run at once.
func (s *Scanner) ScanFiles(paths []string) *types.ScanResult {
	tasks := make([]task, len(paths))
	for i, p := range paths {
		p := p
		tasks[i] = task{path: p, load: func() ([]byte, error) { return os.ReadFile(p) }}
	}
	return s.run(tasks)
}

// ScanBlobs is ScanFiles for content that is already in memory.
func (s *Scanner) ScanBlobs(blobs []Blob) *types.ScanResult {
	tasks := make([]task, len(blobs))
	for i, b := range blobs {
		data := b.Data
		tasks[i] = task{path: b.Path, load: func() ([]byte, error) { return data, nil }}
	}
	return s.run(tasks)
}

func (s *Scanner) run(tasks []task) *types.ScanResult {
	started := time.Now()
	res := types.NewScanResult(started)

	outcomes := make([]fileOutcome, len(tasks))
	sem := semaphore.NewWeighted(int64(s.cfg.MaxConcurrency))
	ctx := context.Background()
	var wg sync.WaitGroup
	for i, t := range tasks {
		// waiters are served FIFO; Background never cancels
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = fileOutcome{status: failed, err: err}
			continue
		}
		wg.Add(1)
		go func(i int, t task) {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = s.scanFile(t)
		}(i, t)
	}
	wg.Wait()

	for i, o := range outcomes {
		switch o.status {
		case skipped:
			res.AddSkipped()
		case failed:
			res.AddError(tasks[i].path, o.err)
		default:
			res.AddFile(o.lines, o.findings)
		}
	}
	merged := Merge(res.Findings)
	for i := range merged {
		merged[i].Timestamp = started
	}
	res.Finalize(time.Now(), merged)

	s.logger.Debug().
		Int("files", res.FilesScanned).
		Int("skipped", res.FilesSkipped).
		Int("errors", len(res.Errors)).
		Int("findings", len(res.Findings)).
		Dur("duration", res.Duration()).
		Msg("scan completed")
	s.notifier.Notify(audit.ScanEvent(s.cfg.Root, res))
	return res
}

func (s *Scanner) scanFile(t task) fileOutcome {
	p := t.path
	rel := s.relPath(p)
	if s.ignore.Match(rel) {
		s.logger.Debug().Str("path", p).Msg("skipped by ignore rules")
		return fileOutcome{status: skipped}
	}
	if hasBinaryExtension(rel) {
		s.logger.Debug().Str("path", p).Msg("skipped binary extension")
		return fileOutcome{status: skipped}
	}
	b, err := t.load()
	if err != nil {
		s.logger.Debug().Err(err).Str("path", p).Msg("read failed")
		return fileOutcome{status: failed, err: err}
	}
	if s.cfg.MaxBytes > 0 && int64(len(b)) > s.cfg.MaxBytes {
		s.logger.Debug().Str("path", p).Int("bytes", len(b)).Msg("skipped oversized file")
		return fileOutcome{status: skipped}
	}
	if looksBinary(b) {
		s.logger.Debug().Str("path", p).Msg("skipped binary content")
		return fileOutcome{status: skipped}
	}
	content := string(b)
	if hasFileDirective(content) {
		return fileOutcome{status: skipped}
	}
	return fileOutcome{status: scanned, lines: countLines(content), findings: s.scanContent(p, content)}
}

// ScanContent runs the per-file pipeline on in-memory content: both
// engines, inline directives, the allowlist and the confidence floor.
// Findings are stamped with the call time.
func (s *Scanner) ScanContent(path, content string) []types.Finding {
	fs := s.scanContent(path, content)
	now := time.Now()
	for i := range fs {
		fs[i].Timestamp = now
	}
	return fs
}

func (s *Scanner) scanContent(path, content string) []types.Finding {
	if content == "" || hasFileDirective(content) {
		return nil
	}
	fs := s.patterns.Detect(content, path)
	if s.entropy != nil {
		fs = append(fs, s.entropy.Detect(content, path)...)
	}
	fs = suppress(content, fs)
	fs = s.filterAllowed(fs)
	fs = filterByConfidence(fs, s.cfg.MinConfidence)
	return Merge(fs)
}

func (s *Scanner) filterAllowed(fs []types.Finding) []types.Finding {
	if len(s.allow) == 0 {
		return fs
	}
	out := fs[:0:0]
	for _, f := range fs {
		if s.allow.Allows(f.Match) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func filterByConfidence(fs []types.Finding, min float64) []types.Finding {
	if min <= 0 {
		return fs
	}
	var out []types.Finding
	for _, f := range fs {
		if f.Confidence >= min {
			out = append(out, f)
		}
	}
	return out
}

func (s *Scanner) relPath(p string) string {
	if s.cfg.Root == "" {
		return p
	}
	rel, err := filepath.Rel(s.cfg.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return rel
}

func countLines(content string) int {
	if content == "" {
		return 0
	}
	n := strings.Count(content, "\n")
	if !strings.HasSuffix(content, "\n") {
		n++
	}
	return n
}
