// Package aws remediates leaked AWS access keys by deactivating them
// through the IAM API.
package aws

import (
	"context"
	"fmt"
	"strings"

	"github.com/keyreaper/keyreaper/internal/config"
	"github.com/keyreaper/keyreaper/internal/types"
)

// accessKeyIDPrefix marks long-lived IAM user access key ids. Other AWS
// material a scanner surfaces (secret key halves, ASIA session tokens)
// cannot be deactivated by key id and is dropped from the report.
const accessKeyIDPrefix = "AKIA"

// Provider deactivates leaked IAM access keys.
type Provider struct {
	api      iamAPI
	resolver *resolver
	dryRun   bool
}

// Option configures the provider.
type Option func(*Provider)

// WithDryRun resolves owners but skips the deactivation call.
func WithDryRun(dry bool) Option {
	return func(p *Provider) { p.dryRun = dry }
}

// New builds a provider backed by the default AWS credential chain.
func New(ctx context.Context, cfg config.AWSConfig, opts ...Option) (*Provider, error) {
	api, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newWithAPI(api, opts...), nil
}

func newWithAPI(api iamAPI, opts ...Option) *Provider {
	p := &Provider{api: api, resolver: newResolver(api)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements providers.Provider.
func (p *Provider) Name() string { return "aws" }

// Claims implements providers.Provider. Category matching is substring
// based: scanners and classifiers disagree on exact labels ("AWS",
// "aws_access_key", "Amazon Web Services Key").
func (p *Provider) Claims(f types.Finding) bool {
	c := strings.ToLower(f.Category)
	return strings.Contains(c, "aws") || strings.Contains(c, "amazon")
}

// Remediable implements providers.Provider.
func (p *Provider) Remediable(f types.Finding) bool {
	return LooksLikeAccessKeyID(f.Secret)
}

// LooksLikeAccessKeyID reports whether s begins with the IAM access key id
// prefix.
func LooksLikeAccessKeyID(s string) bool {
	return strings.HasPrefix(s, accessKeyIDPrefix)
}

// Remediate implements providers.Provider. Every outcome carries the full
// key id: the id alone grants nothing and the report must identify the key.
func (p *Provider) Remediate(ctx context.Context, f types.Finding) types.KeyOutcome {
	out := types.KeyOutcome{
		AccessKeyID: f.Secret,
		Path:        f.Path,
		Line:        f.Line,
		Confidence:  f.Confidence,
	}

	owner, found, err := p.resolver.Owner(ctx, f.Secret)
	if err != nil {
		out.Status = types.StatusFailed
		out.Message = fmt.Sprintf("Failed to resolve key's owner: %v", err)
		return out
	}
	if !found {
		out.Status = types.StatusFailed
		out.Message = "Could not determine key's owner"
		return out
	}
	out.UserName = &owner

	if p.dryRun {
		out.Status = types.StatusDeactivated
		out.Message = fmt.Sprintf("Dry run: would deactivate key for user '%s'", owner)
		return out
	}

	switch err := p.deactivate(ctx, owner, f.Secret); {
	case err == nil:
		out.Status = types.StatusDeactivated
		out.Message = fmt.Sprintf("Successfully deactivated key for user '%s'", owner)
	case isNoSuchEntity(err):
		out.Status = types.StatusNotFound
		out.Message = "Key or user no longer exists"
	default:
		out.Status = types.StatusFailed
		out.Message = fmt.Sprintf("Failed to deactivate: %v", err)
	}
	return out
}
