package keyreaper

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/cache"
	"github.com/keyreaper/keyreaper/internal/report"
	"github.com/keyreaper/keyreaper/internal/tui"
	"github.com/keyreaper/keyreaper/internal/types"
)

var reviewReportPath string

func init() {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Interactively review a remediation run",
		RunE:  runReview,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&reviewReportPath, "report", "r", "", "report JSON path (default: last cached run)")
}

func runReview(_ *cobra.Command, _ []string) error {
	root, _ := filepath.Abs(".")

	if reviewReportPath != "" {
		rpt, err := report.ReadJSON(reviewReportPath)
		if err != nil {
			return err
		}
		reload := func() (*types.Report, error) {
			r, err := report.ReadJSON(reviewReportPath)
			if err != nil {
				return nil, err
			}
			return &r, nil
		}
		return tui.Run(&rpt, reviewReportPath, reload)
	}

	lr, err := cache.LoadResults(root)
	if err != nil {
		return fmt.Errorf("no cached run to review; run 'keyreaper remediate' first or pass --report")
	}
	reload := func() (*types.Report, error) {
		fresh, err := cache.LoadResults(root)
		if err != nil {
			return nil, err
		}
		return &fresh.Report, nil
	}
	return tui.RunCached(&lr.Report, lr.Source, reload, lr.Timestamp)
}
