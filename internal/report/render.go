package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/keyreaper/keyreaper/internal/types"
)

type PrintOptions struct {
	NoColor  bool
	Duration time.Duration
}

// Tally counts AWS key outcomes by status.
type Tally struct {
	Deactivated int
	NotFound    int
	Failed      int
}

func Count(r types.Report) Tally {
	var t Tally
	for _, k := range r.AWSKeys {
		switch k.Status {
		case types.StatusDeactivated:
			t.Deactivated++
		case types.StatusNotFound:
			t.NotFound++
		default:
			t.Failed++
		}
	}
	return t
}

// PrintText writes one line per outcome, the closest rendition to the raw
// report for piping and CI logs.
func PrintText(w io.Writer, r types.Report, opts PrintOptions) {
	r = sorted(r)
	if len(r.AWSKeys) == 0 && len(r.GeneralSecrets) == 0 {
		fmt.Fprintln(w, "No actionable findings ✅")
		printFooter(w, r, opts)
		return
	}
	if len(r.AWSKeys) > 0 {
		// Column widths
		maxKey := 10
		for _, k := range r.AWSKeys {
			if l := len(k.AccessKeyID); l > maxKey {
				maxKey = l
			}
		}
		fmt.Fprintf(w, "AWS access keys: %d\n", len(r.AWSKeys))
		for _, k := range r.AWSKeys {
			status := string(k.Status)
			if !opts.NoColor {
				status = colorStatus(k.Status)
			}
			fmt.Fprintf(w, "%-11s %-*s %-12s %s:%d  %s\n", status, maxKey, k.AccessKeyID, ownerName(k), k.Path, k.Line, k.Message)
		}
	}
	if len(r.GeneralSecrets) > 0 {
		fmt.Fprintf(w, "General secrets: %d\n", len(r.GeneralSecrets))
		for _, g := range r.GeneralSecrets {
			fmt.Fprintf(w, "%-24s %s:%d  %s\n", g.SecretType, g.Path, g.Line, g.Preview)
		}
	}
	printFooter(w, r, opts)
}

// PrintTable writes the report as bordered tables, one for key outcomes and
// one for the general catalog.
func PrintTable(w io.Writer, r types.Report, opts PrintOptions) {
	r = sorted(r)
	if len(r.AWSKeys) == 0 && len(r.GeneralSecrets) == 0 {
		fmt.Fprintln(w, "No actionable findings ✅")
		printFooter(w, r, opts)
		return
	}
	if len(r.AWSKeys) > 0 {
		tbl := tablewriter.NewTable(w)
		tbl.Header("STATUS", "ACCESS KEY", "USER", "LOCATION", "MESSAGE")
		for _, k := range r.AWSKeys {
			status := string(k.Status)
			if !opts.NoColor {
				status = colorStatus(k.Status)
			}
			loc := k.Path + ":" + strconv.Itoa(k.Line)
			tbl.Append([]string{status, k.AccessKeyID, ownerName(k), loc, k.Message}) //nolint:errcheck
		}
		tbl.Render() //nolint:errcheck
	}
	if len(r.GeneralSecrets) > 0 {
		tbl := tablewriter.NewTable(w)
		tbl.Header("CATEGORY", "LOCATION", "CONFIDENCE", "PREVIEW")
		for _, g := range r.GeneralSecrets {
			loc := g.Path + ":" + strconv.Itoa(g.Line)
			conf := strconv.FormatFloat(g.Confidence, 'f', 2, 64)
			tbl.Append([]string{g.SecretType, loc, conf, g.Preview}) //nolint:errcheck
		}
		tbl.Render() //nolint:errcheck
	}
	printFooter(w, r, opts)
}

func printFooter(w io.Writer, r types.Report, opts PrintOptions) {
	if opts.Duration <= 0 {
		return
	}
	t := Count(r)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Keys: %d (deactivated: %d, not found: %d, failed: %d)  General: %d\n",
		len(r.AWSKeys), t.Deactivated, t.NotFound, t.Failed, len(r.GeneralSecrets))
	fmt.Fprintf(w, "Run duration: %.2fs\n", opts.Duration.Seconds())
}

func sorted(r types.Report) types.Report {
	r = Normalize(r)
	sort.SliceStable(r.AWSKeys, func(i, j int) bool {
		if r.AWSKeys[i].Path == r.AWSKeys[j].Path {
			return r.AWSKeys[i].Line < r.AWSKeys[j].Line
		}
		return r.AWSKeys[i].Path < r.AWSKeys[j].Path
	})
	sort.SliceStable(r.GeneralSecrets, func(i, j int) bool {
		if r.GeneralSecrets[i].Path == r.GeneralSecrets[j].Path {
			return r.GeneralSecrets[i].Line < r.GeneralSecrets[j].Line
		}
		return r.GeneralSecrets[i].Path < r.GeneralSecrets[j].Path
	})
	return r
}

func ownerName(k types.KeyOutcome) string {
	if k.UserName == nil || *k.UserName == "" {
		return "-"
	}
	return *k.UserName
}

func colorStatus(s types.Status) string {
	switch s {
	case types.StatusDeactivated:
		return "\x1b[32mdeactivated\x1b[0m" // green
	case types.StatusNotFound:
		return "\x1b[33mnot_found\x1b[0m" // yellow
	default:
		return "\x1b[31mfailed\x1b[0m" // red
	}
}
