package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/keyreaper/keyreaper/internal/types"
)

// StepSummary renders the report as GitHub-flavored markdown for the
// Actions job summary panel.
func StepSummary(r types.Report) string {
	r = Normalize(r)
	var b strings.Builder
	b.WriteString("## Keyreaper remediation\n\n")

	if len(r.AWSKeys) == 0 && len(r.GeneralSecrets) == 0 {
		b.WriteString("No actionable findings. :white_check_mark:\n")
		return b.String()
	}

	t := Count(r)
	fmt.Fprintf(&b, "**%d** AWS key(s): %d deactivated, %d not found, %d failed. **%d** general secret(s).\n\n",
		len(r.AWSKeys), t.Deactivated, t.NotFound, t.Failed, len(r.GeneralSecrets))

	if len(r.AWSKeys) > 0 {
		b.WriteString("| Status | Access key | User | Location | Message |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, k := range r.AWSKeys {
			fmt.Fprintf(&b, "| %s | `%s` | %s | `%s:%d` | %s |\n",
				statusBadge(k.Status), k.AccessKeyID, mdEscape(ownerName(k)), k.Path, k.Line, mdEscape(k.Message))
		}
		b.WriteString("\n")
	}

	if len(r.GeneralSecrets) > 0 {
		b.WriteString("| Category | Location | Confidence | Preview |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, g := range r.GeneralSecrets {
			fmt.Fprintf(&b, "| %s | `%s:%d` | %.2f | `%s` |\n",
				mdEscape(g.SecretType), g.Path, g.Line, g.Confidence, mdEscape(g.Preview))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// WriteStepSummary appends the markdown summary to the file named by
// GITHUB_STEP_SUMMARY. Outside of Actions it reports false and does nothing.
func WriteStepSummary(r types.Report) (bool, error) {
	path := os.Getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return false, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("opening step summary: %w", err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.WriteString(StepSummary(r)); err != nil {
		return false, fmt.Errorf("writing step summary: %w", err)
	}
	return true, nil
}

func statusBadge(s types.Status) string {
	switch s {
	case types.StatusDeactivated:
		return ":white_check_mark: deactivated"
	case types.StatusNotFound:
		return ":grey_question: not_found"
	default:
		return ":x: failed"
	}
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
