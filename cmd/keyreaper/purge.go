package keyreaper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/keyreaper/keyreaper/internal/cache"
	"github.com/keyreaper/keyreaper/internal/gitexec"
)

func init() {
	purge := &cobra.Command{Use: "purge", Short: "History rewrite and local-state helpers"}
	rootCmd.AddCommand(purge)

	var yes bool
	var backup string
	var dryRun bool
	var summary string
	pathCmd := &cobra.Command{
		Use:   "path <file>",
		Short: "Remove a file from all history (DANGEROUS: rewrites history)",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := gitexec.DetectFilterRepo(); err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to rewrite history without --yes")
			}
			return filterRepoRun("purge.path", backup, dryRun, summary,
				map[string]any{"target": args[0]},
				"filter-repo", "--path", args[0], "--invert-paths")
		},
	}
	pathCmd.Flags().BoolVar(&yes, "yes", false, "confirm history rewrite")
	pathCmd.Flags().StringVar(&backup, "backup-branch", "", "name of backup branch to create")
	pathCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print commands without executing")
	pathCmd.Flags().StringVar(&summary, "summary", "", "write remediation summary JSON to this path")
	purge.AddCommand(pathCmd)

	// purge pattern: remove paths by glob(s)
	var globs []string
	var yesPat bool
	var backupPat string
	var dryRunPat bool
	var summaryPat string
	patternCmd := &cobra.Command{
		Use:   "pattern",
		Short: "Remove files from all history by glob(s) (DANGEROUS)",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := gitexec.DetectFilterRepo(); err != nil {
				return err
			}
			if !yesPat {
				return fmt.Errorf("refusing to rewrite history without --yes")
			}
			if len(globs) == 0 {
				return fmt.Errorf("--glob required (repeatable)")
			}
			filterArgs := []string{"filter-repo"}
			for _, g := range globs {
				filterArgs = append(filterArgs, "--path-glob", g)
			}
			filterArgs = append(filterArgs, "--invert-paths")
			return filterRepoRun("purge.pattern", backupPat, dryRunPat, summaryPat,
				map[string]any{"globs": globs}, filterArgs...)
		},
	}
	patternCmd.Flags().StringSliceVar(&globs, "glob", nil, "glob pattern(s) to purge (repeatable)")
	patternCmd.Flags().BoolVar(&yesPat, "yes", false, "confirm history rewrite")
	patternCmd.Flags().StringVar(&backupPat, "backup-branch", "", "name of backup branch to create")
	patternCmd.Flags().BoolVar(&dryRunPat, "dry-run", false, "print commands without executing")
	patternCmd.Flags().StringVar(&summaryPat, "summary", "", "write remediation summary JSON to this path")
	purge.AddCommand(patternCmd)

	// purge replace: replace content using filter-repo replace-text file
	var replFile string
	var yesRepl bool
	var backupRepl string
	var dryRunRepl bool
	var summaryRepl string
	replaceCmd := &cobra.Command{
		Use:   "replace",
		Short: "Replace leaked content across history using --replace-text file (DANGEROUS)",
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := gitexec.DetectFilterRepo(); err != nil {
				return err
			}
			if !yesRepl {
				return fmt.Errorf("refusing to rewrite history without --yes")
			}
			if replFile == "" {
				return fmt.Errorf("--replacements file is required")
			}
			return filterRepoRun("purge.replace", backupRepl, dryRunRepl, summaryRepl,
				map[string]any{"replace_file": replFile},
				"filter-repo", "--replace-text", replFile)
		},
	}
	replaceCmd.Flags().StringVar(&replFile, "replacements", "", "path to filter-repo replace-text file")
	replaceCmd.Flags().BoolVar(&yesRepl, "yes", false, "confirm history rewrite")
	replaceCmd.Flags().StringVar(&backupRepl, "backup-branch", "", "name of backup branch to create")
	replaceCmd.Flags().BoolVar(&dryRunRepl, "dry-run", false, "print commands without executing")
	replaceCmd.Flags().StringVar(&summaryRepl, "summary", "", "write remediation summary JSON to this path")
	purge.AddCommand(replaceCmd)

	// purge state: local state, not history
	var stateAudit bool
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: "Clear keyreaper's repo-local state (last-run cache, optionally the audit log)",
		RunE: func(_ *cobra.Command, _ []string) error {
			root, _ := filepath.Abs(".")
			removed, err := cache.Purge(root, stateAudit)
			if err != nil {
				return err
			}
			if len(removed) == 0 {
				fmt.Println("Nothing to clear.")
				return nil
			}
			for _, p := range removed {
				fmt.Println("Removed", p)
			}
			return nil
		},
	}
	stateCmd.Flags().BoolVar(&stateAudit, "audit", false, "also remove the audit log")
	purge.AddCommand(stateCmd)
}

// filterRepoRun creates the backup branch and drives git filter-repo, or
// prints the commands on a dry run. A summary file records what ran.
func filterRepoRun(action, backup string, dry bool, summaryPath string, detail map[string]any, filterArgs ...string) error {
	if backup == "" {
		backup = time.Now().Format("keyreaper-backup-20060102-150405")
	}
	commands := [][]string{
		{"git", "branch", backup},
		append([]string{"git"}, filterArgs...),
	}
	if dry {
		for _, c := range commands {
			fmt.Fprintln(os.Stderr, strings.Join(c, " "))
		}
	} else {
		ctx, cancel := gitexec.WithTimeout(10 * time.Minute)
		defer cancel()
		if err := gitexec.Git(ctx, "branch", backup); err != nil {
			return err
		}
		if err := gitexec.Git(ctx, filterArgs...); err != nil {
			return err
		}
		fmt.Println("History rewritten. You likely need to force-push:")
		fmt.Println("  git push --force --all && git push --force --tags")
		fmt.Printf("A backup branch was created: %s\n", backup)
	}
	if summaryPath != "" {
		data := map[string]any{
			"action":        action,
			"backup_branch": backup,
			"dry_run":       dry,
			"commands":      commands,
			"timestamp":     time.Now().Format(time.RFC3339),
		}
		for k, v := range detail {
			data[k] = v
		}
		_ = writePurgeSummary(summaryPath, data) //nolint:errcheck
	}
	return nil
}

// writePurgeSummary writes a JSON summary file for purge actions.
func writePurgeSummary(path string, data map[string]any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
