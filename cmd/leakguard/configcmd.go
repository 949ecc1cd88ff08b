package leakguard

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leakguard/leakguard/internal/config"
)

var (
	cfgOutput string
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a .leakguard.yml with the default settings",
		RunE:  runConfigInit,
	}
	initCmd.Flags().StringVar(&cfgOutput, "output", config.LocalNames[0], "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after merging files and flags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flagPath)
			if err != nil {
				return err
			}
			defer s.Close()
			return yaml.NewEncoder(os.Stdout).Encode(effective(s.settings))
		},
	}
	showCmd.Flags().StringVarP(&flagPath, "path", "p", ".", "repository root")
	cfgCmd.AddCommand(showCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
	}
	s, err := config.Resolve(config.FileConfig{})
	if err != nil {
		return err
	}
	b, err := yaml.Marshal(effective(s))
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

// effective renders resolved settings back into the file shape.
func effective(s config.Settings) config.FileConfig {
	enabled := !s.Entropy.Disabled
	o := s.Entropy.Options
	ign := s.Ignore
	return config.FileConfig{
		Patterns: &config.PatternsConfig{Custom: nonNil(s.CustomPatterns)},
		Entropy: &config.EntropyConfig{
			Enabled:          &enabled,
			Threshold:        &o.Threshold,
			MinLength:        &o.MinLength,
			MaxLength:        &o.MaxLength,
			MinAlnumRatio:    &o.Charsets.MinAlnumRatio,
			RequireDigit:     &o.Charsets.RequireDigit,
			RequireMixedCase: &o.Charsets.RequireMixedCase,
		},
		Ignore:          &ign,
		Include:         &s.Include,
		Exclude:         &s.Exclude,
		DefaultExcludes: &s.DefaultExcludes,
		Allowlist:       nonNil(s.Allowlist),
		MaxConcurrency:  &s.MaxConcurrency,
		MaxBytes:        &s.MaxBytes,
		MinConfidence:   &s.MinConfidence,
		NoColor:         &s.NoColor,
		Redaction:       &config.RedactionConfig{Mask: &s.Mask, Backups: &s.Backups},
		Audit:           &config.AuditConfig{Enabled: &s.AuditEnabled, Path: &s.AuditPath},
		Log: &config.LogConfig{
			Level:      &s.Log.Level,
			Format:     &s.Log.Format,
			File:       &s.Log.File,
			MaxSizeMB:  &s.Log.MaxSizeMB,
			MaxBackups: &s.Log.MaxBackups,
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
