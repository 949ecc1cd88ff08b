package leakguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leakguard/leakguard/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage baselines",
	}

	update := &cobra.Command{
		Use:   "update [paths...]",
		Short: "Accept every current finding into the baseline",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flagPath)
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := s.scan(args)
			if err != nil {
				return err
			}
			p := s.baselinePath()
			if err := report.SaveBaseline(p, report.NewBaseline(s.root, res.Findings)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Baseline updated: %d finding(s) recorded in %s\n", len(res.Findings), p)
			return nil
		},
	}
	update.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	update.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file (default: "+report.DefaultBaselineFile+" in the root)")
	addSelectionFlags(update)

	rootCmd.AddCommand(cmd)
	cmd.AddCommand(update)
}
