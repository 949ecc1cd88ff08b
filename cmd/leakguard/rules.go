package leakguard

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/leakguard/leakguard/internal/detectors"
	"github.com/leakguard/leakguard/internal/entropy"
	"github.com/leakguard/leakguard/internal/report"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the detection rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flagPath)
			if err != nil {
				return err
			}
			defer s.Close()
			sc, err := detectors.New(s.settings.CustomPatterns)
			if err != nil {
				return err
			}
			table := tablewriter.NewWriter(os.Stdout)
			table.Header("NAME", "CATEGORY", "CONFIDENCE", "DESCRIPTION")
			for _, p := range sc.Patterns() {
				if err := table.Append(p.Name, p.Category, fmt.Sprintf("%.2f", p.Confidence), p.Description); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root (custom patterns are read from its config)")

	test := &cobra.Command{
		Use:   "test [file]",
		Short: "Run detection on a file or stdin and print the findings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, ".")
			if err != nil {
				return err
			}
			defer s.Close()
			name, data := "stdin", []byte(nil)
			if len(args) == 1 {
				name = args[0]
				data, err = os.ReadFile(name)
			} else {
				data, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}
			sc, err := s.scanner()
			if err != nil {
				return err
			}
			return report.PrintTable(os.Stdout, sc.ScanContent(name, string(data)), report.PrintOptions{NoColor: s.noColor})
		},
	}
	cmd.AddCommand(test)
	rootCmd.AddCommand(cmd)
}

// ruleDescriptions maps each category to a description for SARIF rules.
func ruleDescriptions() map[string]string {
	out := map[string]string{entropy.Category: "High-entropy string that looks like a credential"}
	e, err := detectors.New(nil)
	if err != nil {
		return out
	}
	for _, p := range e.Patterns() {
		if _, ok := out[p.Category]; !ok {
			out[p.Category] = p.Description
		}
	}
	return out
}
