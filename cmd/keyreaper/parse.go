package keyreaper

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/findings"
)

var (
	parseInput    string
	parseOutput   string
	parseCategory string
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Flatten trufflehog JSONL into a findings file",
		RunE:  runParse,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&parseInput, "input", "i", "", "trufflehog JSONL file (- for stdin)")
	if err := cmd.MarkFlagRequired("input"); err != nil {
		fmt.Fprintln(os.Stderr, "warning: could not mark --input as required:", err)
	}
	cmd.Flags().StringVarP(&parseOutput, "output", "o", "", "write the findings JSON here (default stdout)")
	cmd.Flags().StringVar(&parseCategory, "category", "", "keep only this detector category")
}

func runParse(_ *cobra.Command, _ []string) error {
	var recs []findings.Record
	var err error
	if parseInput == "-" {
		recs, err = findings.ParseTruffleHog(os.Stdin)
	} else {
		recs, err = findings.ParseTruffleHogFile(parseInput)
	}
	if err != nil {
		return err
	}
	if parseCategory != "" {
		recs = findings.FilterCategory(recs, parseCategory)
	}
	if recs == nil {
		recs = []findings.Record{}
	} // no `null` in JSON

	buf, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return err
	}
	if parseOutput == "" {
		fmt.Println(string(buf))
	} else {
		if err := os.WriteFile(parseOutput, buf, 0644); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Wrote", parseOutput)
	}

	printParseStats(findings.Summarize(recs))
	return nil
}

// printParseStats writes the per-category tally to stderr, largest first,
// so it never mixes into a piped findings document.
func printParseStats(stats findings.Stats) {
	fmt.Fprintf(os.Stderr, "Parsed %d finding(s) across %d categor%s\n",
		stats.Total, stats.UniqueCategories, plural(stats.UniqueCategories, "y", "ies"))
	names := make([]string, 0, len(stats.ByCategory))
	for name := range stats.ByCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if stats.ByCategory[names[i]] == stats.ByCategory[names[j]] {
			return names[i] < names[j]
		}
		return stats.ByCategory[names[i]] > stats.ByCategory[names[j]]
	})
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-28s %d\n", name, stats.ByCategory[name])
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
