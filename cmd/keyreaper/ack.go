package keyreaper

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/report"
)

var (
	ackResultsFile string
	ackMode        string
)

func init() {
	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Manage acknowledged findings",
		Long:  "Acknowledged findings are suppressed from future remediation runs. Only fingerprints are stored, never secret values.",
	}
	rootCmd.AddCommand(cmd)

	add := &cobra.Command{
		Use:   "add",
		Short: "Acknowledge every finding in a results file",
		RunE: func(_ *cobra.Command, _ []string) error {
			mode, err := findings.ParseMode(ackMode)
			if err != nil {
				return err
			}
			fs, err := loadFindings(ackResultsFile, mode)
			if err != nil {
				return err
			}
			ack, err := report.LoadAckList(report.DefaultAckPath)
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			added := ack.Add(fs...)
			if err := report.SaveAckList(report.DefaultAckPath, ack); err != nil {
				return err
			}
			fmt.Printf("Acknowledged %d new finding(s), %d total\n", added, len(ack.Items))
			return nil
		},
	}
	add.Flags().StringVarP(&ackResultsFile, "results-file", "f", "", "findings file to acknowledge")
	if err := add.MarkFlagRequired("results-file"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --results-file as required:", err)
	}
	add.Flags().StringVar(&ackMode, "mode", string(findings.ModeAIFiltered), "input schema: raw | ai-filtered")
	cmd.AddCommand(add)

	list := &cobra.Command{
		Use:   "list",
		Short: "List acknowledged fingerprints",
		RunE: func(_ *cobra.Command, _ []string) error {
			ack, err := report.LoadAckList(report.DefaultAckPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					fmt.Println("No acknowledged findings.")
					return nil
				}
				return err
			}
			fps := make([]string, 0, len(ack.Items))
			for fp := range ack.Items {
				fps = append(fps, fp)
			}
			sort.Strings(fps)
			for _, fp := range fps {
				fmt.Println(fp)
			}
			return nil
		},
	}
	cmd.AddCommand(list)

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Forget every acknowledged finding",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := os.Remove(report.DefaultAckPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Println("Acknowledge list cleared.")
			return nil
		},
	}
	cmd.AddCommand(clear)
}
