package leakguard

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	flagJSON           bool
	flagSARIF          bool
	flagText           bool
	flagConfig         string
	flagMaxConcurrency int
	flagFailOn         string
	flagNoColor        bool
	flagMinConfidence  float64
	flagTimeout        time.Duration
	flagLogLevel       string
	flagLogFormat      string
	flagLogFile        string

	version = "0.1.0"
)

// errFindings makes Execute exit with status 1 without printing an error.
var errFindings = errors.New("secrets found")

// rootCmd is the base Cobra command for the leakguard CLI.
var rootCmd = &cobra.Command{
	Use:           "leakguard",
	Short:         "Find and redact secrets in your repo",
	Long:          "leakguard scans files, the git index or a whole tree for credentials, reports them and can redact them in place with reversible backups.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the leakguard CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errFindings) {
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "emit JSON")
	pf.BoolVar(&flagSARIF, "sarif", false, "emit SARIF 2.1.0")
	pf.BoolVar(&flagText, "text", false, "emit plain text instead of a table")
	pf.StringVar(&flagConfig, "config", "", "config file (default: .leakguard.yml in the scanned root)")
	pf.IntVar(&flagMaxConcurrency, "max-concurrency", 0, "files scanned at once (0 = config or 10)")
	pf.StringVar(&flagFailOn, "fail-on", "medium", "fail on low|medium|high")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	pf.Float64Var(&flagMinConfidence, "min-confidence", 0.0, "only report findings with confidence >= value (0-1)")
	pf.DurationVar(&flagTimeout, "timeout", 0, "abandon the scan after this long (0 = no limit)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: trace|debug|info|warn|error|disabled")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: console|json")
	pf.StringVar(&flagLogFile, "log-file", "", "also write logs to this file (rotated)")
}
