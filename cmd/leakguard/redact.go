package leakguard

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/leakguard/leakguard/internal/cache"
	"github.com/leakguard/leakguard/internal/ignore"
	"github.com/leakguard/leakguard/internal/redact"
	"github.com/leakguard/leakguard/internal/types"
	"github.com/leakguard/leakguard/pkg/core"
)

var (
	flagMask   string
	flagBackup bool
	flagDryRun bool
	flagFrom   string
	flagLast   bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "redact [paths...]",
		Short: "Replace secrets in files with a mask",
		Long:  "Scan the given paths (or read an earlier JSON scan with --from) and rewrite each finding in place. With backups on, every changed file is first copied to <file>" + redact.BackupSuffix + " and can be put back with 'leakguard restore'.",
		RunE:  runRedact,
	}
	rootCmd.AddCommand(cmd)
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	cmd.Flags().StringVar(&flagMask, "mask", redact.DefaultMask, "replacement text")
	cmd.Flags().BoolVar(&flagBackup, "backup", true, "keep a backup of every rewritten file")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "report what would change without writing")
	cmd.Flags().StringVar(&flagFrom, "from", "", "redact the findings of a saved JSON scan instead of scanning")
	cmd.Flags().BoolVar(&flagLast, "last", false, "redact the findings of the last 'leakguard scan' of --path")
	addSelectionFlags(cmd)

	restore := &cobra.Command{
		Use:   "restore [files...]",
		Short: "Restore files from their backups",
		Long:  "Restore the named files, or every file with a backup under --path, and remove the backups.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupOp(cmd, args, func(r *core.SecretRedactor, paths []string) redact.Report { return r.Restore(paths) })
		},
	}
	restore.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	rootCmd.AddCommand(restore)

	cleanup := &cobra.Command{
		Use:   "cleanup [files...]",
		Short: "Delete redaction backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackupOp(cmd, args, func(r *core.SecretRedactor, paths []string) redact.Report { return r.Cleanup(paths) })
		},
	}
	cleanup.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	rootCmd.AddCommand(cleanup)
}

func runRedact(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, flagPath)
	if err != nil {
		return err
	}
	defer s.Close()

	var res *types.ScanResult
	switch {
	case flagLast:
		if res, err = cache.LoadResults(s.root); err != nil {
			return fmt.Errorf("no previous scan to redact (run 'leakguard scan' first): %w", err)
		}
	case flagFrom != "":
		f, err := os.Open(flagFrom)
		if err != nil {
			return err
		}
		res, err = core.ReadJSON(f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", flagFrom, err)
		}
	default:
		if res, err = s.scan(args); err != nil {
			return err
		}
	}

	r := s.redactor()
	rep := r.RedactSecrets(res, s.settings.RedactOptions(flagDryRun))
	if err := writeRedactReport(os.Stdout, rep, flagDryRun); err != nil {
		return err
	}
	if rep.BackupsCreated > 0 {
		if err := ignore.AppendGitignore(s.root, "*"+redact.BackupSuffix); err != nil {
			s.logger.Warn().Err(err).Msg("failed to add backups to .gitignore")
		}
	}
	if len(rep.Errors) > 0 {
		return fmt.Errorf("%d file(s) could not be redacted", len(rep.Errors))
	}
	return nil
}

func runBackupOp(cmd *cobra.Command, args []string, op func(*core.SecretRedactor, []string) redact.Report) error {
	s, err := newSession(cmd, flagPath)
	if err != nil {
		return err
	}
	defer s.Close()

	paths := args
	if len(paths) == 0 {
		if paths, err = core.FindBackups(s.root); err != nil {
			return err
		}
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stdout, "No backups found.")
		return nil
	}
	rep := op(s.redactor(), paths)
	if err := writeRedactReport(os.Stdout, rep, false); err != nil {
		return err
	}
	if len(rep.Errors) > 0 {
		return fmt.Errorf("%d file(s) failed", len(rep.Errors))
	}
	return nil
}

func (s *session) redactor() *core.SecretRedactor {
	return core.NewSecretRedactor(core.RedactorConfig{
		MaxConcurrency: s.settings.MaxConcurrency,
		Notifier:       s.notifier,
		Logger:         s.logger,
	})
}

func writeRedactReport(w io.Writer, rep redact.Report, dryRun bool) error {
	if flagJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	if len(rep.Files) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("FILE", "REDACTED", "SKIPPED", "BACKUP", "NOTE")
		for _, d := range rep.Files {
			note := d.Error
			if note == "" && len(d.Warnings) > 0 {
				note = fmt.Sprintf("%d warning(s): %s", len(d.Warnings), d.Warnings[0])
			}
			if err := table.Append(d.Path, fmt.Sprint(d.Redacted), fmt.Sprint(d.Skipped), d.BackupPath, note); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	verb := "Redacted"
	if dryRun {
		verb = "Would redact"
	}
	fmt.Fprintf(w, "%s %d secret(s) in %d file(s); %d backup(s) created; %d error(s)\n",
		verb, rep.SecretsRedacted, rep.FilesProcessed, rep.BackupsCreated, len(rep.Errors))
	return nil
}
