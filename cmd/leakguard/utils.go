package leakguard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leakguard/leakguard/internal/audit"
	"github.com/leakguard/leakguard/internal/config"
	"github.com/leakguard/leakguard/internal/engine"
	"github.com/leakguard/leakguard/internal/logging"
	"github.com/leakguard/leakguard/internal/report"
	"github.com/leakguard/leakguard/internal/types"
	"github.com/leakguard/leakguard/pkg/core"
)

// selection flags shared by scan, guard, redact and baseline
var (
	flagInclude         string
	flagExclude         string
	flagMaxBytes        int64
	flagNoEntropy       bool
	flagDefaultExcludes bool
)

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", config.DefaultMaxBytes, "skip files larger than this (0 = no limit)")
	cmd.Flags().BoolVar(&flagNoEntropy, "no-entropy", false, "disable the entropy engine")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "apply built-in exclude list (node_modules, dist, lock files, etc.)")
}

// session is the per-invocation state every command starts from.
type session struct {
	root     string
	settings config.Settings
	logger   zerolog.Logger
	closer   io.Closer
	notifier audit.Notifier
	auditLog *audit.AuditLog
	noColor  bool
}

func newSession(cmd *cobra.Command, root string) (*session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid root %q: %w", root, err)
	}
	fc, err := loadFileConfig(abs)
	if err != nil {
		return nil, err
	}
	settings, err := config.Resolve(config.Merge(fc, flagLayer(cmd)))
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(os.Stderr, settings.Log)
	if err != nil {
		return nil, err
	}

	s := &session{
		root:     abs,
		settings: settings,
		logger:   logger,
		closer:   closer,
		noColor:  settings.NoColor || !term.IsTerminal(int(os.Stdout.Fd())),
	}
	notifiers := audit.Multi{audit.LogNotifier{Logger: logger}}
	if settings.AuditEnabled {
		if settings.AuditPath != "" {
			s.auditLog = audit.Open(settings.AuditPath, logger)
		} else {
			s.auditLog = audit.NewAuditLog(abs, logger)
		}
		notifiers = append(notifiers, s.auditLog)
	}
	s.notifier = notifiers
	logger.Debug().Str("root", abs).Int("max_concurrency", settings.MaxConcurrency).Msg("session ready")
	return s, nil
}

func (s *session) Close() {
	if s.closer != nil {
		_ = s.closer.Close()
	}
}

// loadFileConfig reads global and local config, or the --config file in
// place of the local one.
func loadFileConfig(root string) (config.FileConfig, error) {
	if flagConfig == "" {
		return config.Load(root)
	}
	global, err := config.LoadGlobal()
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return config.FileConfig{}, err
	}
	local, err := config.LoadFile(flagConfig)
	if err != nil {
		return config.FileConfig{}, err
	}
	return config.Merge(global, local), nil
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// flagLayer turns explicitly set flags into the highest-precedence config
// layer.
func flagLayer(cmd *cobra.Command) config.FileConfig {
	var fc config.FileConfig
	if changed(cmd, "max-concurrency") {
		fc.MaxConcurrency = &flagMaxConcurrency
	}
	if changed(cmd, "min-confidence") {
		fc.MinConfidence = &flagMinConfidence
	}
	if changed(cmd, "no-color") {
		fc.NoColor = &flagNoColor
	}
	if changed(cmd, "include") {
		fc.Include = &flagInclude
	}
	if changed(cmd, "exclude") {
		fc.Exclude = &flagExclude
	}
	if changed(cmd, "max-bytes") {
		fc.MaxBytes = &flagMaxBytes
	}
	if changed(cmd, "default-excludes") {
		fc.DefaultExcludes = &flagDefaultExcludes
	}
	if changed(cmd, "no-entropy") && flagNoEntropy {
		off := false
		fc.Entropy = &config.EntropyConfig{Enabled: &off}
	}
	var red config.RedactionConfig
	if changed(cmd, "mask") {
		red.Mask = &flagMask
	}
	if changed(cmd, "backup") {
		red.Backups = &flagBackup
	}
	if red != (config.RedactionConfig{}) {
		fc.Redaction = &red
	}
	var lc config.LogConfig
	if changed(cmd, "log-level") {
		lc.Level = &flagLogLevel
	}
	if changed(cmd, "log-format") {
		lc.Format = &flagLogFormat
	}
	if changed(cmd, "log-file") {
		lc.File = &flagLogFile
	}
	if lc != (config.LogConfig{}) {
		fc.Log = &lc
	}
	return fc
}

func (s *session) scanner() (*core.SecretScanner, error) {
	cfg := s.settings.EngineConfig(s.root)
	cfg.Logger = s.logger
	cfg.Notifier = s.notifier
	return core.NewSecretScanner(cfg)
}

// collect expands arguments into files: directories are walked, files are
// taken as given. With no arguments the whole root is walked.
func (s *session) collect(args []string) ([]string, error) {
	opts := s.settings.WalkOptions()
	if len(args) == 0 {
		args = []string{s.root}
	}
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil || !info.IsDir() {
			// missing files surface as per-file scan errors
			abs, _ := filepath.Abs(a)
			out = append(out, abs)
			continue
		}
		files, err := engine.Walk(a, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", a, err)
		}
		for _, f := range files {
			abs, _ := filepath.Abs(f)
			out = append(out, abs)
		}
	}
	return out, nil
}

// emit writes the result in the selected format. findings may be a
// baseline-filtered subset of r.Findings.
func (s *session) emit(w io.Writer, r *types.ScanResult, findings []types.Finding, descriptions map[string]string) error {
	view := r
	if len(findings) != len(r.Findings) {
		view = types.NewScanResult(r.StartedAt)
		view.FilesScanned = r.FilesScanned
		view.FilesSkipped = r.FilesSkipped
		view.TotalLines = r.TotalLines
		view.Errors = r.Errors
		view.Finalize(r.FinishedAt, findings)
	}
	switch {
	case flagSARIF:
		if err := report.WriteSARIF(w, view, descriptions); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		return report.WriteJSON(w, view)
	case flagText:
		report.PrintText(w, findings, report.OptionsFor(r, s.noColor))
	default:
		if err := report.PrintTable(w, findings, report.OptionsFor(r, s.noColor)); err != nil {
			return err
		}
	}
	if !flagJSON && !flagSARIF {
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "warning: %s\n", e.Error())
		}
	}
	return nil
}
