package leakguard

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leakguard/leakguard/internal/audit"
	"github.com/leakguard/leakguard/internal/engine"
	"github.com/leakguard/leakguard/internal/git"
	"github.com/leakguard/leakguard/internal/report"
)

// BypassEnv skips the pre-commit guard when set to 1. Each bypass is
// audited.
const BypassEnv = "LEAKGUARD_BYPASS"

var flagInstallHook bool

const hookScript = `#!/bin/sh
# installed by leakguard
exec leakguard guard
`

func init() {
	cmd := &cobra.Command{
		Use:   "guard",
		Short: "Scan staged changes (pre-commit hook)",
		Long:  "Scan the staged content of every changed file and exit 1 when secrets are found. Set " + BypassEnv + "=1 to skip the check; the bypass is recorded in the audit log.",
		RunE:  runGuard,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	cmd.Flags().BoolVar(&flagInstallHook, "install", false, "install leakguard as the repository's pre-commit hook")
	addSelectionFlags(cmd)
}

func runGuard(cmd *cobra.Command, _ []string) error {
	repo, err := git.Open(flagPath)
	if err != nil {
		return err
	}
	s, err := newSession(cmd, repo.Root())
	if err != nil {
		return err
	}
	defer s.Close()

	if flagInstallHook {
		return installHook(repo.Root())
	}

	if os.Getenv(BypassEnv) == "1" {
		s.notifier.Notify(audit.BypassEvent(s.root, BypassEnv+"=1"))
		fmt.Fprintln(os.Stderr, "leakguard: pre-commit check bypassed ("+BypassEnv+"=1)")
		return nil
	}

	staged, err := repo.StagedFiles()
	if err != nil {
		return err
	}
	blobs := make([]engine.Blob, len(staged))
	for i, f := range staged {
		blobs[i] = engine.Blob{Path: f.Path, Data: f.Data}
	}

	cfg := s.settings.EngineConfig(s.root)
	cfg.Logger = s.logger
	cfg.Notifier = s.notifier
	sc, err := engine.New(cfg)
	if err != nil {
		return err
	}
	res := sc.ScanBlobs(blobs)

	base, err := report.LoadBaseline(s.baselinePath())
	if err != nil {
		return err
	}
	findings := report.FilterNewFindings(s.root, res.Findings, base)
	if len(findings) == 0 {
		return nil
	}
	if err := s.emit(os.Stderr, res, findings, ruleDescriptions()); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "\nCommit blocked: %d secret(s) staged. Run 'leakguard redact' or set %s=1 to bypass.\n", len(findings), BypassEnv)
	return errFindings
}

func installHook(root string) error {
	dir := filepath.Join(root, ".git", "hooks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create hooks dir: %w", err)
	}
	p := filepath.Join(dir, "pre-commit")
	if b, err := os.ReadFile(p); err == nil && !strings.Contains(string(b), "installed by leakguard") {
		return fmt.Errorf("%s already exists; add 'leakguard guard' to it manually", p)
	}
	if err := os.WriteFile(p, []byte(hookScript), 0o755); err != nil {
		return fmt.Errorf("failed to write hook: %w", err)
	}
	fmt.Fprintln(os.Stdout, "Installed pre-commit hook at", p)
	return nil
}
