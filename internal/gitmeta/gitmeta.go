// Package gitmeta resolves where a remediation run happened: repository,
// commit, branch and actor. In GitHub Actions the workflow env is
// authoritative; elsewhere the local clone is read best-effort.
package gitmeta

import (
	"os"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

const defaultServerURL = "https://github.com"

type Context struct {
	Repo      string // owner/name when derivable
	Commit    string
	Branch    string
	Actor     string
	ServerURL string
	RunID     string
	CI        bool
}

// CommitURL links to the commit on the forge, empty when unknown.
func (c Context) CommitURL() string {
	if c.Repo == "" || c.Commit == "" {
		return ""
	}
	return c.serverURL() + "/" + c.Repo + "/commit/" + c.Commit
}

// RunURL links to the Actions run, empty outside of CI.
func (c Context) RunURL() string {
	if !c.CI || c.Repo == "" || c.RunID == "" {
		return ""
	}
	return c.serverURL() + "/" + c.Repo + "/actions/runs/" + c.RunID
}

func (c Context) serverURL() string {
	if c.ServerURL != "" {
		return strings.TrimSuffix(c.ServerURL, "/")
	}
	return defaultServerURL
}

// Resolve prefers the Actions environment and falls back to the clone at root.
func Resolve(root string) Context {
	if ctx, ok := FromEnv(); ok {
		return ctx
	}
	return FromRepo(root)
}

// FromEnv reads the GitHub Actions workflow environment. The second return
// is false outside of Actions.
func FromEnv() (Context, bool) {
	if os.Getenv("GITHUB_ACTIONS") != "true" {
		return Context{}, false
	}
	return Context{
		Repo:      os.Getenv("GITHUB_REPOSITORY"),
		Commit:    os.Getenv("GITHUB_SHA"),
		Branch:    os.Getenv("GITHUB_REF_NAME"),
		Actor:     os.Getenv("GITHUB_ACTOR"),
		ServerURL: os.Getenv("GITHUB_SERVER_URL"),
		RunID:     os.Getenv("GITHUB_RUN_ID"),
		CI:        true,
	}, true
}

// FromRepo reads metadata from the clone at root. Fields stay empty on
// failure, callers render what they get.
func FromRepo(root string) Context {
	var ctx Context
	repo, err := gogit.PlainOpenWithOptions(root, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return ctx
	}

	head, err := repo.Head()
	if err != nil {
		return ctx
	}
	ctx.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		ctx.Branch = head.Name().Short()
	}

	if commit, err := repo.CommitObject(head.Hash()); err == nil {
		ctx.Actor = commit.Author.Name
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			ctx.Repo = shortRepo(urls[0])
		}
	}
	return ctx
}

// shortRepo reduces a remote URL to owner/name when possible. Unknown
// hosts pass through untouched.
func shortRepo(url string) string {
	s := strings.TrimSpace(url)
	s = strings.TrimSuffix(s, "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.Index(s, "github.com/"); i >= 0 {
		return s[i+len("github.com/"):]
	}
	// scp-style remotes like git@host:owner/name
	if !strings.Contains(s, "://") {
		if i := strings.LastIndex(s, ":"); i >= 0 {
			return s[i+1:]
		}
	}
	return s
}
