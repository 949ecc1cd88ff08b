package leakguard

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leakguard/leakguard/internal/cache"
	"github.com/leakguard/leakguard/internal/git"
	"github.com/leakguard/leakguard/internal/report"
	"github.com/leakguard/leakguard/internal/types"
)

var (
	flagPath        string
	flagTracked     bool
	flagBase        string
	flagBaseline    string
	flagNoBaseline  bool
	flagIncremental bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan files for secrets",
		Long:  "Scan the given files and directories, or the whole --path tree when none are given. --tracked limits the scan to files in the git index and --base to files changed since a revision.",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root (config, ignore rules and baseline are read from here)")
	cmd.Flags().BoolVar(&flagTracked, "tracked", false, "scan only files tracked by git")
	cmd.Flags().StringVar(&flagBase, "base", "", "scan only files changed since this revision (e.g. main)")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default: "+report.DefaultBaselineFile+" in the root)")
	cmd.Flags().BoolVar(&flagNoBaseline, "no-baseline", false, "report findings recorded in the baseline too")
	cmd.Flags().BoolVar(&flagIncremental, "incremental", false, "skip files unchanged since they last scanned clean")
	addSelectionFlags(cmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, flagPath)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.scan(args)
	if err != nil {
		return err
	}

	if err := cache.SaveResults(s.root, res); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save scan results")
	}

	findings := res.Findings
	if !flagNoBaseline {
		base, err := report.LoadBaseline(s.baselinePath())
		if err != nil {
			return err
		}
		findings = report.FilterNewFindings(s.root, findings, base)
	}

	if err := s.emit(os.Stdout, res, findings, ruleDescriptions()); err != nil {
		return err
	}
	if report.ShouldFail(findings, flagFailOn) {
		return errFindings
	}
	return nil
}

// scan resolves the file set from the flags and runs the scanner.
func (s *session) scan(args []string) (*types.ScanResult, error) {
	var paths []string
	switch {
	case flagTracked || flagBase != "":
		repo, err := git.Open(s.root)
		if err != nil {
			return nil, err
		}
		if flagBase != "" {
			paths, err = repo.ChangedSince(flagBase)
		} else {
			paths, err = repo.TrackedFiles()
		}
		if err != nil {
			return nil, err
		}
	default:
		var err error
		if paths, err = s.collect(args); err != nil {
			return nil, err
		}
	}

	var (
		db      cache.DB
		skipped []string
	)
	if flagIncremental {
		var err error
		if db, err = cache.Load(s.root); err != nil {
			s.logger.Warn().Err(err).Msg("ignoring scan cache")
		}
		skipped, paths = db.Unchanged(s.root, paths)
		s.logger.Debug().Int("cached", len(skipped)).Msg("incremental scan")
	}

	sc, err := s.scanner()
	if err != nil {
		return nil, err
	}
	if !flagJSON && !flagSARIF {
		fmt.Fprintf(os.Stderr, "Scanning %d files in %s...\n", len(paths), s.root)
	}
	res, err := sc.ScanWithTimeout(paths, flagTimeout)
	if err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	if flagIncremental {
		res.FilesSkipped += len(skipped)
		db.Record(s.root, paths, res)
		if err := cache.Save(s.root, db); err != nil {
			s.logger.Warn().Err(err).Msg("failed to save scan cache")
		}
	}
	return res, nil
}

func (s *session) baselinePath() string {
	if flagBaseline != "" {
		return flagBaseline
	}
	return filepath.Join(s.root, report.DefaultBaselineFile)
}
