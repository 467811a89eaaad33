package keyreaper

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/classify"
	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/gitmeta"
	"github.com/keyreaper/keyreaper/internal/notify"
)

var (
	clsResultsFile string
	clsOutput      string
	clsBinary      string
	clsModel       string
	clsThreshold   float64
	clsDevice      string
	clsNotify      bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run the DeBERTa classifier over parsed findings",
		RunE:  runClassify,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&clsResultsFile, "results-file", "f", "", "parsed findings file (trufflehog or keyreaper parse output)")
	if err := cmd.MarkFlagRequired("results-file"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --results-file as required:", err)
	}
	cmd.Flags().StringVarP(&clsOutput, "output", "o", "", "write the classified document here (default stdout)")
	cmd.Flags().StringVar(&clsBinary, "binary", "", "classifier binary path (default: deberta-filter on $PATH or ~/.keyreaper/bin)")
	cmd.Flags().StringVar(&clsModel, "model", "", "fine-tuned checkpoint passed to the classifier")
	cmd.Flags().Float64Var(&clsThreshold, "threshold", 0, "probability cutoff for a Y verdict (default 0.7)")
	cmd.Flags().StringVar(&clsDevice, "device", "", "pin execution device: cuda | cpu (default: cuda with cpu fallback)")
	cmd.Flags().BoolVar(&clsNotify, "notify", false, "post the classification summary to Slack")
}

func runClassify(_ *cobra.Command, _ []string) error {
	root, _ := filepath.Abs(".")
	config.LoadDotEnv(root)

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}
	ccfg := classifierConfig(lcfg, gcfg)

	fs, err := loadFindings(clsResultsFile, findings.ModeRaw)
	if err != nil {
		return err
	}

	clf, err := classify.New(ccfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Classifying %d finding(s) with %s...\n", len(fs), clf.Version())
	res, err := clf.Classify(ctx, fs)
	if err != nil {
		return err
	}

	doc, err := findings.EncodeFiltered(res.Findings, res.Summary)
	if err != nil {
		return err
	}
	if clsOutput == "" {
		fmt.Println(string(doc))
	} else {
		if err := os.WriteFile(clsOutput, doc, 0644); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote", clsOutput)
	}

	sum := res.Summary
	if sum.Total == 0 {
		fmt.Fprintln(os.Stderr, "No findings to classify")
	} else {
		fmt.Fprintf(os.Stderr, "Classified %d finding(s): %d true, %d false, %d error(s) (backend %s)\n",
			sum.Total, sum.PredictedTrue, sum.PredictedFalse, sum.Errors, res.Backend)
		if sum.FallbackUsed {
			fmt.Fprintln(os.Stderr, "GPU exhausted mid-run; findings were re-batched on cpu")
		}
	}

	if clsNotify {
		webhook := lcfg.GetSlackWebhook()
		if webhook == "" {
			webhook = gcfg.GetSlackWebhook()
		}
		if webhook == "" {
			return fmt.Errorf("no Slack webhook configured (set SLACK_WEBHOOK_URL or slack.webhook_url)")
		}
		payload := notify.BuildClassifierMessage(sum, res.Backend, gitmeta.Resolve(root))
		if err := notify.NewNotifier(webhook).Send(ctx, payload); err != nil {
			fmt.Fprintln(os.Stderr, "notify warning:", err)
		}
	}
	return nil
}

// classifierConfig merges classifier settings with CLI flags on top of the
// local-then-global config files.
func classifierConfig(lcfg, gcfg config.FileConfig) config.ClassifierConfig {
	ccfg := gcfg.GetClassifierConfig()
	if lcfg.Classifier != nil {
		ccfg = lcfg.GetClassifierConfig()
	}
	if clsBinary != "" {
		ccfg.BinaryPath = &clsBinary
	}
	if clsModel != "" {
		ccfg.ModelPath = &clsModel
	}
	if clsThreshold != 0 {
		ccfg.Threshold = &clsThreshold
	}
	if clsDevice != "" {
		ccfg.Device = &clsDevice
	}
	return ccfg
}
