// Package gitexec runs the system git for operations the library cannot
// do, notably history rewrites through git-filter-repo.
package gitexec

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// WithTimeout bounds a git invocation. History rewrites on large repos are
// slow but never unbounded.
func WithTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// Git runs git with the given arguments in the current directory, streaming
// output to the user.
func Git(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

// DetectFilterRepo verifies git-filter-repo is installed and callable.
func DetectFilterRepo() error {
	ctx, cancel := WithTimeout(10 * time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "filter-repo", "--version")
	var stderr bytes.Buffer
	cmd.Stdout = &stderr
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(`git-filter-repo is not available: %v

To fix this:
1. Install it: pip install git-filter-repo (or your package manager)
2. Verify with: git filter-repo --version
3. See https://github.com/newren/git-filter-repo for details`, err)
	}
	return nil
}
