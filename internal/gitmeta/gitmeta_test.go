package gitmeta

import (
	"os/exec"
	"testing"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, string(out))
		}
	}
	run("init", ".")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "tester")
	run("commit", "--allow-empty", "-m", "init")
	run("remote", "add", "origin", "git@github.com:acme/keyreaper.git")
	return dir
}

func TestFromRepo(t *testing.T) {
	dir := initRepo(t)
	ctx := FromRepo(dir)
	if ctx.Commit == "" {
		t.Fatalf("expected non-empty commit")
	}
	if ctx.Branch == "" {
		t.Fatalf("expected non-empty branch")
	}
	if ctx.Repo != "acme/keyreaper" {
		t.Fatalf("expected owner/name from remote, got %q", ctx.Repo)
	}
	if ctx.Actor != "tester" {
		t.Fatalf("expected commit author as actor, got %q", ctx.Actor)
	}
	if ctx.CI {
		t.Fatal("local metadata should not claim CI")
	}
}

func TestFromRepo_NotARepo(t *testing.T) {
	ctx := FromRepo(t.TempDir())
	if ctx.Commit != "" || ctx.Repo != "" {
		t.Fatalf("expected empty context outside a repo, got %+v", ctx)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_SERVER_URL", "https://github.example.com")
	t.Setenv("GITHUB_REPOSITORY", "acme/keyreaper")
	t.Setenv("GITHUB_SHA", "deadbeef")
	t.Setenv("GITHUB_REF_NAME", "main")
	t.Setenv("GITHUB_ACTOR", "octocat")
	t.Setenv("GITHUB_RUN_ID", "42")

	ctx, ok := FromEnv()
	if !ok {
		t.Fatal("expected Actions env to be detected")
	}
	if !ctx.CI || ctx.Actor != "octocat" || ctx.Branch != "main" {
		t.Fatalf("unexpected context: %+v", ctx)
	}
	if got := ctx.RunURL(); got != "https://github.example.com/acme/keyreaper/actions/runs/42" {
		t.Fatalf("unexpected run url: %q", got)
	}
	if got := ctx.CommitURL(); got != "https://github.example.com/acme/keyreaper/commit/deadbeef" {
		t.Fatalf("unexpected commit url: %q", got)
	}
}

func TestFromEnv_OutsideActions(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "")
	if _, ok := FromEnv(); ok {
		t.Fatal("expected no Actions context")
	}
}

func TestResolve_EnvWins(t *testing.T) {
	dir := initRepo(t)
	t.Setenv("GITHUB_ACTIONS", "true")
	t.Setenv("GITHUB_REPOSITORY", "acme/other")
	ctx := Resolve(dir)
	if ctx.Repo != "acme/other" || !ctx.CI {
		t.Fatalf("expected env context to win, got %+v", ctx)
	}
}

func TestShortRepo(t *testing.T) {
	cases := map[string]string{
		"git@github.com:acme/keyreaper.git":  "acme/keyreaper",
		"https://github.com/acme/keyreaper":  "acme/keyreaper",
		"https://github.com/acme/keyreaper/": "acme/keyreaper",
		"git@gitlab.example.com:a/b.git":     "a/b",
		"https://gitlab.example.com/a/b.git": "https://gitlab.example.com/a/b",
	}
	for in, want := range cases {
		if got := shortRepo(in); got != want {
			t.Fatalf("shortRepo(%q)=%q want %q", in, got, want)
		}
	}
}
