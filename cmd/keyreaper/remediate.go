package keyreaper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/audit"
	"github.com/keyreaper/keyreaper/internal/cache"
	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/providers"
	awsprovider "github.com/keyreaper/keyreaper/internal/providers/aws"
	"github.com/keyreaper/keyreaper/internal/remediate"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/types"
	"github.com/keyreaper/keyreaper/internal/update"
)

const defaultOutputPath = "outputs/remediation_results.json"

var (
	flagResultsFile  string
	flagMode         string
	flagOutput       string
	flagInclude      string
	flagExclude      string
	flagNoDedup      bool
	flagDryRun       bool
	flagIncludeAcked bool
	flagTable        bool
	flagText         bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Deactivate leaked AWS keys and catalog the rest",
		RunE:  runRemediate,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagResultsFile, "results-file", "f", "", "findings file (trufflehog or classifier output)")
	if err := cmd.MarkFlagRequired("results-file"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --results-file as required:", err)
	}
	cmd.Flags().StringVar(&flagMode, "mode", "", "input schema: raw | ai-filtered (default ai-filtered)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "report path (default "+defaultOutputPath+")")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs on finding paths")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs on finding paths")
	cmd.Flags().BoolVar(&flagNoDedup, "no-dedup", false, "act on every occurrence of a key id, not just the first")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "resolve key owners but never deactivate")
	cmd.Flags().BoolVar(&flagIncludeAcked, "include-acked", false, "process findings on the acknowledge list too")
	cmd.Flags().BoolVar(&flagTable, "table", false, "output in table format with borders (default on a TTY)")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
}

func runRemediate(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	root, _ := filepath.Abs(".")
	config.LoadDotEnv(root)

	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}

	modeStr := pickString(flagMode, lcfg.Mode, gcfg.Mode)
	if modeStr == "" {
		modeStr = string(findings.ModeAIFiltered)
	}
	mode, err := findings.ParseMode(modeStr)
	if err != nil {
		return err
	}
	outPath := pickString(flagOutput, lcfg.Output, gcfg.Output)
	if outPath == "" {
		outPath = defaultOutputPath
	}

	fs, err := loadFindings(flagResultsFile, mode)
	if err != nil {
		return err
	}
	filter := findings.NewPathFilter(
		pickString(flagInclude, lcfg.Include, gcfg.Include),
		pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
	)
	fs = filter.Apply(fs)

	pcfg := remediate.Config{
		Workers: pickInt(flagWorkers, lcfg.Workers, gcfg.Workers),
		NoDedup: pickBool(flagNoDedup, lcfg.NoDedup, gcfg.NoDedup),
	}
	if !flagIncludeAcked {
		if ack, err := report.LoadAckList(report.DefaultAckPath); err == nil && len(ack.Items) > 0 {
			pcfg.Suppress = ack.SuppressFunc()
		}
	}

	dryRun := pickBool(flagDryRun, lcfg.DryRun, gcfg.DryRun)
	noColor := pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor)
	if !stdoutIsTTY() {
		noColor = true
	}

	// Friendly banner before the run
	if !flagJSON {
		if !flagNoUpdateCheck {
			if latest, newer, _ := update.Check(version, false); newer && latest != "" {
				_, _ = fmt.Fprintf(os.Stderr, "(new version available: v%s)  run 'keyreaper update' to upgrade\n", latest)
			}
		}
		if flagSelfUpdate {
			// invoke in-band self update
			if err := selfUpdate(); err == nil {
				_, _ = fmt.Fprintln(os.Stderr, "updated to latest; re-run command")
				return nil
			}
		}
		verb := "Remediating"
		if dryRun {
			verb = "Dry run over"
		}
		_, _ = fmt.Fprintf(os.Stderr, "%s %d findings from %s...\n", verb, len(fs), flagResultsFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := buildRegistry(ctx, lcfg, gcfg, dryRun)
	if err != nil {
		return err
	}

	res := remediate.New(registry, pcfg).Run(ctx, fs)
	duration := time.Since(start)

	// The report artifact is written even for an empty or cancelled run.
	if err := report.WriteJSON(outPath, res.Report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	renderReport(res.Report, report.PrintOptions{NoColor: noColor, Duration: duration})
	if !flagJSON {
		c := res.Counts
		_, _ = fmt.Fprintf(os.Stderr, "Gate: %d in, %d suppressed, %d discarded, %d gate errors, %d duplicates, %d fragments\n",
			c.Input, c.Suppressed, c.Discarded, c.GateErrors, c.Duplicates, c.Fragments)
		_, _ = fmt.Fprintf(os.Stderr, "Report written to %s\n", outPath)
	}

	// Best-effort local state: audit trail and last-run cache for review.
	rec := audit.CreateRunRecord(flagResultsFile, string(mode), res, duration, dryRun)
	if err := audit.NewAuditLog(root).LogRun(rec); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "audit warning:", err)
	}
	if err := cache.SaveResults(root, flagResultsFile, res.RunID, res.Report); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "cache warning:", err)
	}

	if res.Partial {
		return fmt.Errorf("run cancelled before completion; partial report written to %s", outPath)
	}
	if report.ShouldFail(res.Report, failOnPolicy(cmd, lcfg, gcfg)) {
		os.Exit(1)
	}
	return nil
}

// loadFindings reads and normalizes a findings document. Classifier
// documents are validated against the schema before decode so a malformed
// file fails loudly instead of half-loading.
func loadFindings(path string, mode findings.Mode) ([]types.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading findings file: %w", err)
	}
	if mode == findings.ModeAIFiltered {
		if err := findings.ValidateFiltered(data); err != nil {
			return nil, err
		}
	}
	return findings.Decode(data, mode)
}

// buildRegistry wires the remediation providers. AWS is the only route
// today; the registry keeps the seam for more.
func buildRegistry(ctx context.Context, lcfg, gcfg config.FileConfig, dryRun bool) (*providers.Registry, error) {
	awsCfg := gcfg.GetAWSConfig()
	if lcfg.AWS != nil {
		awsCfg = lcfg.GetAWSConfig()
	}
	p, err := awsprovider.New(ctx, awsCfg, awsprovider.WithDryRun(dryRun))
	if err != nil {
		return nil, fmt.Errorf("aws provider: %w", err)
	}
	return providers.NewRegistry(p), nil
}

// failOnPolicy resolves the exit-code policy. The flag default is "none",
// so the config value only applies when the flag was not given.
func failOnPolicy(cmd *cobra.Command, lcfg, gcfg config.FileConfig) string {
	if cmd.Flags().Changed("fail-on") {
		return flagFailOn
	}
	if v := pickString("", lcfg.FailOn, gcfg.FailOn); v != "" {
		return v
	}
	return flagFailOn
}

func renderReport(r types.Report, opts report.PrintOptions) {
	switch {
	case flagJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report.Normalize(r))
	case flagText:
		report.PrintText(os.Stdout, r, opts)
	case flagTable:
		report.PrintTable(os.Stdout, r, opts)
	default:
		if stdoutIsTTY() {
			report.PrintTable(os.Stdout, r, opts)
		} else {
			report.PrintText(os.Stdout, r, opts)
		}
	}
}
