package keyreaper

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/audit"
	"github.com/keyreaper/keyreaper/internal/cache"
	"github.com/keyreaper/keyreaper/internal/classify"
	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/gitmeta"
	"github.com/keyreaper/keyreaper/internal/notify"
	"github.com/keyreaper/keyreaper/internal/remediate"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/types"
)

var (
	ciResultsFile  string
	ciMode         string
	ciOutput       string
	ciClassify     bool
	ciNotify       bool
	ciSARIF        string
	ciDryRun       bool
	ciIncludeAcked bool
)

func init() {
	ci := &cobra.Command{Use: "ci", Short: "One-shot pipeline and templates for CI providers"}
	rootCmd.AddCommand(ci)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Classify, remediate and publish in one step",
		RunE:  runCI,
	}
	ci.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&ciResultsFile, "results-file", "f", "", "scanner findings file")
	if err := runCmd.MarkFlagRequired("results-file"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --results-file as required:", err)
	}
	runCmd.Flags().StringVar(&ciMode, "mode", string(findings.ModeRaw), "input schema: raw | ai-filtered")
	runCmd.Flags().StringVarP(&ciOutput, "output", "o", "", "report path (default "+defaultOutputPath+")")
	runCmd.Flags().BoolVar(&ciClassify, "classify", true, "run the classifier gate before remediation")
	runCmd.Flags().BoolVar(&ciNotify, "notify", false, "post the incident report to Slack")
	runCmd.Flags().StringVar(&ciSARIF, "sarif", "", "also write a SARIF 2.1.0 report to this path")
	runCmd.Flags().BoolVar(&ciDryRun, "dry-run", false, "resolve key owners but never deactivate")
	runCmd.Flags().BoolVar(&ciIncludeAcked, "include-acked", false, "process findings on the acknowledge list too")

	var provider string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a CI pipeline template for your provider",
		RunE: func(_ *cobra.Command, _ []string) error {
			var path string
			var content string
			switch provider {
			case "github":
				path = filepath.Join(".github", "workflows", "keyreaper.yml")
				content = `name: keyreaper
on: [push]

jobs:
  keyreaper:
    runs-on: ubuntu-latest
    permissions:
      contents: read
    steps:
      - uses: actions/checkout@v4
      - name: TruffleHog scan
        run: |
          docker run --rm -v "$PWD:/repo" trufflesecurity/trufflehog:latest \
            filesystem /repo --json > trufflehog.json || true
      - uses: actions/setup-go@v5
        with:
          go-version: '1.25'
      - name: Remediate leaked keys
        env:
          AWS_ACCESS_KEY_ID: ${{ secrets.REMEDIATION_AWS_KEY_ID }}
          AWS_SECRET_ACCESS_KEY: ${{ secrets.REMEDIATION_AWS_SECRET }}
          SLACK_WEBHOOK_URL: ${{ secrets.SLACK_WEBHOOK_URL }}
        run: |
          go run github.com/keyreaper/keyreaper@latest ci run \
            --results-file trufflehog.json --classify=false --notify --fail-on failed
      - uses: actions/upload-artifact@v4
        if: always()
        with:
          name: remediation-results
          path: outputs/remediation_results.json
`
			case "gitlab":
				path = ".gitlab-ci.yml"
				content = `stages: [remediate]
keyreaper:
  stage: remediate
  image: golang:1.25
  script:
    - go install github.com/keyreaper/keyreaper@latest
    - trufflehog filesystem . --json > trufflehog.json || true
    - keyreaper ci run --results-file trufflehog.json --classify=false --fail-on failed
  artifacts:
    when: always
    paths:
      - outputs/remediation_results.json
`
			default:
				return fmt.Errorf("unknown --provider. Supported: github, gitlab")
			}
			// ensure parent directories exist if needed
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&provider, "provider", "", "CI provider: github | gitlab")
	if err := initCmd.MarkFlagRequired("provider"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --provider as required:", err)
	}
	ci.AddCommand(initCmd)
}

func runCI(cmd *cobra.Command, _ []string) error {
	start := time.Now()
	root, _ := filepath.Abs(".")
	config.LoadDotEnv(root)

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}

	mode, err := findings.ParseMode(ciMode)
	if err != nil {
		return err
	}
	outPath := ciOutput
	if outPath == "" {
		outPath = pickString("", lcfg.Output, gcfg.Output)
	}
	if outPath == "" {
		outPath = defaultOutputPath
	}

	fs, err := loadFindings(ciResultsFile, mode)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Classifier-filtered input already carries verdicts; re-running the
	// gate over it would double-exec the model.
	if ciClassify && mode == findings.ModeRaw {
		clf, err := classify.New(classifierConfig(lcfg, gcfg))
		if err != nil {
			return err
		}
		res, err := clf.Classify(ctx, fs)
		if err != nil {
			return err
		}
		fs = res.Findings
		sum := res.Summary
		fmt.Fprintf(os.Stderr, "Classifier: %d true, %d false, %d error(s) (backend %s)\n",
			sum.PredictedTrue, sum.PredictedFalse, sum.Errors, res.Backend)
	}

	pcfg := remediate.Config{
		Workers: pickInt(flagWorkers, lcfg.Workers, gcfg.Workers),
		NoDedup: pickBool(false, lcfg.NoDedup, gcfg.NoDedup),
	}
	if !ciIncludeAcked {
		if ack, err := report.LoadAckList(report.DefaultAckPath); err == nil && len(ack.Items) > 0 {
			pcfg.Suppress = ack.SuppressFunc()
		}
	}

	registry, err := buildRegistry(ctx, lcfg, gcfg, ciDryRun)
	if err != nil {
		return err
	}
	res := remediate.New(registry, pcfg).Run(ctx, fs)
	duration := time.Since(start)

	if err := report.WriteJSON(outPath, res.Report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	report.PrintText(os.Stdout, res.Report, report.PrintOptions{NoColor: true, Duration: duration})

	if written, err := report.WriteStepSummary(res.Report); err != nil {
		fmt.Fprintln(os.Stderr, "step summary warning:", err)
	} else if written {
		fmt.Fprintln(os.Stderr, "Step summary appended")
	}
	if ciSARIF != "" {
		if err := writeSARIFFile(ciSARIF, res.Report); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote", ciSARIF)
	}
	if ciNotify {
		webhook := lcfg.GetSlackWebhook()
		if webhook == "" {
			webhook = gcfg.GetSlackWebhook()
		}
		if webhook == "" {
			fmt.Fprintln(os.Stderr, "notify warning: no Slack webhook configured")
		} else {
			payload := notify.BuildIncidentMessage(res.Report, gitmeta.Resolve(root))
			if err := notify.NewNotifier(webhook).Send(ctx, payload); err != nil {
				// A Slack hiccup should not flip the build result.
				fmt.Fprintln(os.Stderr, "notify warning:", err)
			}
		}
	}

	rec := audit.CreateRunRecord(ciResultsFile, string(mode), res, duration, ciDryRun)
	if err := audit.NewAuditLog(root).LogRun(rec); err != nil {
		fmt.Fprintln(os.Stderr, "audit warning:", err)
	}
	if err := cache.SaveResults(root, ciResultsFile, res.RunID, res.Report); err != nil {
		fmt.Fprintln(os.Stderr, "cache warning:", err)
	}

	if res.Partial {
		return fmt.Errorf("run cancelled before completion; partial report written to %s", outPath)
	}
	if report.ShouldFail(res.Report, failOnPolicy(cmd, lcfg, gcfg)) {
		os.Exit(1)
	}
	return nil
}

func writeSARIFFile(path string, r types.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return report.WriteSARIF(f, r, version)
}
