package leakguard

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

func init() {
	cmd := &cobra.Command{Use: "audit", Short: "Inspect the audit log"}

	history := &cobra.Command{
		Use:   "history",
		Short: "Show recorded scans, redactions and guard bypasses, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flagPath)
			if err != nil {
				return err
			}
			defer s.Close()
			if s.auditLog == nil {
				return errors.New("audit log is disabled in config")
			}
			events, err := s.auditLog.LoadHistory()
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Fprintln(os.Stdout, "No audit history yet.")
					return nil
				}
				return err
			}
			if flagHistoryLimit > 0 && len(events) > flagHistoryLimit {
				events = events[:flagHistoryLimit]
			}
			if flagJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.Header("TIME", "EVENT", "DETAIL")
			for _, e := range events {
				detail := e.Reason
				switch {
				case e.Summary != nil:
					detail = fmt.Sprintf("%d finding(s) in %d file(s)", e.Summary.TotalFindings, e.Summary.FilesScanned)
				case e.Redaction != nil:
					detail = fmt.Sprintf("%d redacted in %d file(s), dry run: %t", e.Redaction.SecretsRedacted, e.Redaction.FilesProcessed, e.Redaction.DryRun)
				}
				if err := table.Append(e.Timestamp.Format("2006-01-02 15:04:05"), string(e.Kind), detail); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	history.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	history.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "show at most this many events (0 = all)")

	cmd.AddCommand(history)
	rootCmd.AddCommand(cmd)
}
