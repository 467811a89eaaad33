package keyreaper

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagJSON          bool
	flagNoColor       bool
	flagVerbose       bool
	flagWorkers       int
	flagFailOn        string
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the keyreaper CLI.
var rootCmd = &cobra.Command{
	Use:           "keyreaper",
	Short:         "Confirm leaked secrets and kill the live ones",
	Long:          "Keyreaper takes secret-scanner output from CI, confirms real leaks with a classifier, deactivates leaked AWS access keys through IAM and reports every outcome.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Pipeline diagnostics go to stderr and stay out of piped output
		// unless asked for.
		log.SetOutput(os.Stderr)
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		} else {
			log.SetLevel(log.WarnLevel)
		}
	},
}

// Execute runs the keyreaper CLI. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit JSON")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log pipeline diagnostics to stderr")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", 0, "provider worker count (0 = sequential)")
	rootCmd.PersistentFlags().StringVar(&flagFailOn, "fail-on", "none", "exit 1 when outcomes match: none|failed|any")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.PersistentFlags().BoolVar(&flagSelfUpdate, "self-update", false, "update keyreaper to the latest release")
}
