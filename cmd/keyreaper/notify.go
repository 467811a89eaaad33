package keyreaper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/cache"
	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/gitmeta"
	"github.com/keyreaper/keyreaper/internal/notify"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/types"
)

var (
	notifyReportPath string
	notifyWebhook    string
	notifyDryRun     bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Post a remediation report to Slack",
		RunE:  runNotify,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&notifyReportPath, "report", "r", "", "report JSON path (default: last cached run)")
	cmd.Flags().StringVar(&notifyWebhook, "webhook", "", "Slack webhook URL (default: config or SLACK_WEBHOOK_URL)")
	cmd.Flags().BoolVar(&notifyDryRun, "dry-run", false, "print the Block Kit payload instead of posting")
}

func runNotify(_ *cobra.Command, _ []string) error {
	root, _ := filepath.Abs(".")
	config.LoadDotEnv(root)

	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}

	var rpt types.Report
	source := notifyReportPath
	if notifyReportPath != "" {
		r, err := report.ReadJSON(notifyReportPath)
		if err != nil {
			return err
		}
		rpt = r
	} else {
		lr, err := cache.LoadResults(root)
		if err != nil {
			return fmt.Errorf("no cached run to notify about; run 'keyreaper remediate' first or pass --report")
		}
		rpt = lr.Report
		source = lr.Source
	}

	payload := notify.BuildIncidentMessage(rpt, gitmeta.Resolve(root))
	if notifyDryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	}

	webhook := notifyWebhook
	if webhook == "" {
		webhook = lcfg.GetSlackWebhook()
	}
	if webhook == "" {
		webhook = gcfg.GetSlackWebhook()
	}
	if webhook == "" {
		return fmt.Errorf("no Slack webhook configured (set SLACK_WEBHOOK_URL or slack.webhook_url)")
	}

	if err := notify.NewNotifier(webhook).Send(context.Background(), payload); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Notification sent for %s\n", source)
	return nil
}
