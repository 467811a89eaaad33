package core

import (
	"context"

	"github.com/keyreaper/keyreaper/internal/findings"
	"github.com/keyreaper/keyreaper/internal/providers"
	"github.com/keyreaper/keyreaper/internal/remediate"
	"github.com/keyreaper/keyreaper/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Finding       = types.Finding
	Verdict       = types.Verdict
	Report        = types.Report
	KeyOutcome    = types.KeyOutcome
	GeneralSecret = types.GeneralSecret
	Config        = remediate.Config
	Counts        = remediate.Counts
	Result        = remediate.Result
	Provider      = providers.Provider
	Mode          = findings.Mode
)

// Input modes accepted by LoadFindings and DecodeFindings.
const (
	ModeRaw        = findings.ModeRaw
	ModeAIFiltered = findings.ModeAIFiltered
)

// Remediate is the stable entrypoint for other programs: it gates and
// routes findings through the given providers and aggregates the report.
// With no providers every actionable finding lands in the general catalog.
func Remediate(ctx context.Context, cfg Config, fs []Finding, ps ...Provider) Result {
	return remediate.New(providers.NewRegistry(ps...), cfg).Run(ctx, fs)
}

// LoadFindings reads a findings document from disk under the given mode.
func LoadFindings(path string, mode Mode) ([]Finding, error) {
	return findings.Load(path, mode)
}

// DecodeFindings normalizes a findings document already in memory.
// This is exposed for convenience to avoid importing internals directly.
func DecodeFindings(data []byte, mode Mode) ([]Finding, error) {
	return findings.Decode(data, mode)
}
