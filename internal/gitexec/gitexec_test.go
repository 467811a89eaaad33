package gitexec

import (
	"os/exec"
	"strings"
	"testing"
	"time"
)

func TestGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx, cancel := WithTimeout(10 * time.Second)
	defer cancel()
	if err := Git(ctx, "version"); err != nil {
		t.Fatalf("git version: %v", err)
	}
}

func TestGit_UnknownSubcommand(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	ctx, cancel := WithTimeout(10 * time.Second)
	defer cancel()
	err := Git(ctx, "definitely-not-a-subcommand")
	if err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-subcommand") {
		t.Fatalf("expected args in error, got: %v", err)
	}
}

func TestDetectFilterRepo_GuidanceOnMissing(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	err := DetectFilterRepo()
	if err == nil {
		t.Skip("git-filter-repo installed here")
	}
	if !strings.Contains(err.Error(), "To fix this:") {
		t.Fatalf("expected install guidance, got: %v", err)
	}
}
