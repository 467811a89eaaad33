// Package providers routes actionable findings to the cloud provider able
// to remediate them.
package providers

import (
	"context"

	"github.com/keyreaper/keyreaper/internal/types"
)

// Provider remediates leaked credentials for one cloud service.
type Provider interface {
	// Name identifies the provider in reports and logs.
	Name() string

	// Claims reports whether the finding's category belongs to this
	// provider.
	Claims(f types.Finding) bool

	// Remediable reports whether a claimed finding carries a credential
	// this provider can act on. Claimed but non-remediable findings are
	// dropped from the report entirely: they are fragments (secret key
	// halves, session tokens) of a leak already handled through the key id.
	Remediable(f types.Finding) bool

	// Remediate deactivates the credential and describes the outcome.
	Remediate(ctx context.Context, f types.Finding) types.KeyOutcome
}

// Registry routes findings to providers in registration order. First claim
// wins, so order is significant.
type Registry struct {
	providers []Provider
}

// NewRegistry builds a registry over the given providers.
func NewRegistry(ps ...Provider) *Registry {
	return &Registry{providers: ps}
}

// Match returns the first provider claiming the finding, or nil when the
// finding belongs in the general catalog.
func (r *Registry) Match(f types.Finding) Provider {
	for _, p := range r.providers {
		if p.Claims(f) {
			return p
		}
	}
	return nil
}

// Names lists the registered providers in routing order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p.Name())
	}
	return out
}
