package findings

import (
	"path/filepath"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"

	"github.com/keyreaper/keyreaper/internal/types"
)

// PathFilter restricts findings to paths admitted by include/exclude globs.
// Include globs, when present, act as a positive filter; exclude globs are
// subtracted last. Matching uses forward-slash semantics.
type PathFilter struct {
	includes []string
	excludes []string
}

// NewPathFilter parses comma-separated include and exclude glob lists.
func NewPathFilter(includeList, excludeList string) PathFilter {
	return PathFilter{
		includes: parseGlobList(includeList),
		excludes: parseGlobList(excludeList),
	}
}

// Empty reports whether the filter admits every path.
func (pf PathFilter) Empty() bool {
	return len(pf.includes) == 0 && len(pf.excludes) == 0
}

// Allows reports whether path passes the filter.
func (pf PathFilter) Allows(path string) bool {
	p := strings.ReplaceAll(path, "\\", "/")
	if len(pf.includes) > 0 && !matchAnyGlob(p, pf.includes) {
		return false
	}
	if len(pf.excludes) > 0 && matchAnyGlob(p, pf.excludes) {
		return false
	}
	return true
}

// Apply returns the findings whose paths pass the filter, preserving order.
func (pf PathFilter) Apply(in []types.Finding) []types.Finding {
	if pf.Empty() {
		return in
	}
	out := make([]types.Finding, 0, len(in))
	for _, f := range in {
		if pf.Allows(f.Path) {
			out = append(out, f)
		}
	}
	return out
}

func parseGlobList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
			out = append(out, trimGlobPrefix(p))
		}
	}
	return out
}

func matchAnyGlob(pathToMatch string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, pathToMatch); ok {
			return true
		}
		if ok, _ := doublestar.Match(g, filepath.Base(pathToMatch)); ok {
			return true
		}
	}
	return false
}

func trimGlobPrefix(g string) string {
	s := strings.TrimPrefix(g, "./")
	for strings.HasPrefix(s, "**/") {
		s = strings.TrimPrefix(s, "**/")
	}
	return s
}
