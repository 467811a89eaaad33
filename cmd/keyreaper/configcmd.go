package keyreaper

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/keyreaper/keyreaper/internal/config"
)

var (
	cfgOutput       string
	cfgMode         string
	cfgReportOutput string
	cfgInclude      string
	cfgExclude      string
	cfgWorkers      int
	cfgNoDedup      bool
	cfgNoColor      bool
	cfgFailOn       string
	cfgAWSRegion    string
	cfgAWSProfile   string
	cfgClsBinary    string
	cfgClsModel     string
	cfgClsThreshold float64
	cfgClsDevice    string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .keyreaper.yml with selected options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&cfgOutput, "output", ".keyreaper.yml", "output file path")
	initCmd.Flags().StringVar(&cfgMode, "mode", "ai-filtered", "default input schema: raw | ai-filtered")
	initCmd.Flags().StringVar(&cfgReportOutput, "report-output", "", "default report path")
	initCmd.Flags().StringVar(&cfgInclude, "include", "", "comma-separated include globs on finding paths")
	initCmd.Flags().StringVar(&cfgExclude, "exclude", "", "comma-separated exclude globs on finding paths")
	initCmd.Flags().IntVar(&cfgWorkers, "workers", 0, "provider worker count (0 = sequential)")
	initCmd.Flags().BoolVar(&cfgNoDedup, "no-dedup", false, "act on every occurrence of a key id by default")
	initCmd.Flags().BoolVar(&cfgNoColor, "no-color", false, "disable color output by default")
	initCmd.Flags().StringVar(&cfgFailOn, "fail-on", "none", "default exit policy: none|failed|any")
	initCmd.Flags().StringVar(&cfgAWSRegion, "aws-region", "", "AWS region override")
	initCmd.Flags().StringVar(&cfgAWSProfile, "aws-profile", "", "AWS shared-credentials profile")
	initCmd.Flags().StringVar(&cfgClsBinary, "classifier-binary", "", "classifier binary path")
	initCmd.Flags().StringVar(&cfgClsModel, "classifier-model", "", "classifier checkpoint path")
	initCmd.Flags().Float64Var(&cfgClsThreshold, "threshold", 0, "classifier probability cutoff (default 0.7)")
	initCmd.Flags().StringVar(&cfgClsDevice, "device", "", "classifier device: cuda | cpu")
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	fc := config.FileConfig{
		Include: optStrPtr(cfgInclude),
		Exclude: optStrPtr(cfgExclude),
		Mode:    strPtr(cfgMode),
		Output:  optStrPtr(cfgReportOutput),
		Workers: intPtr(cfgWorkers),
		NoDedup: boolPtr(cfgNoDedup),
		NoColor: boolPtr(cfgNoColor),
		FailOn:  strPtr(cfgFailOn),
	}
	if cfgAWSRegion != "" || cfgAWSProfile != "" {
		fc.AWS = &config.AWSConfig{
			Region:  optStrPtr(cfgAWSRegion),
			Profile: optStrPtr(cfgAWSProfile),
		}
	}
	if cfgClsBinary != "" || cfgClsModel != "" || cfgClsThreshold != 0 || cfgClsDevice != "" {
		fc.Classifier = &config.ClassifierConfig{
			BinaryPath: optStrPtr(cfgClsBinary),
			ModelPath:  optStrPtr(cfgClsModel),
			Device:     optStrPtr(cfgClsDevice),
		}
		if cfgClsThreshold != 0 {
			fc.Classifier.Threshold = &cfgClsThreshold
		}
	}

	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cfgOutput, b, 0644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func strPtr(s string) *string { return &s }
func optStrPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
func boolPtr(v bool) *bool { return &v }
