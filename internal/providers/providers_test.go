package providers

import (
	"context"
	"strings"
	"testing"

	"github.com/keyreaper/keyreaper/internal/types"
)

type stub struct {
	name   string
	prefix string
}

func (s stub) Name() string                    { return s.name }
func (s stub) Claims(f types.Finding) bool     { return strings.HasPrefix(f.Category, s.prefix) }
func (s stub) Remediable(f types.Finding) bool { return true }
func (s stub) Remediate(context.Context, types.Finding) types.KeyOutcome {
	return types.KeyOutcome{Status: types.StatusDeactivated}
}

func TestRegistryMatchFirstWins(t *testing.T) {
	r := NewRegistry(stub{name: "first", prefix: "cloud"}, stub{name: "second", prefix: "cloud"})

	p := r.Match(types.Finding{Category: "cloud-key"})
	if p == nil || p.Name() != "first" {
		t.Fatalf("expected first registered provider, got %v", p)
	}
}

func TestRegistryMatchNone(t *testing.T) {
	r := NewRegistry(stub{name: "aws", prefix: "aws"})

	if p := r.Match(types.Finding{Category: "Slack"}); p != nil {
		t.Fatalf("expected no provider, got %s", p.Name())
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry(stub{name: "aws"}, stub{name: "gcp"})
	names := r.Names()
	if len(names) != 2 || names[0] != "aws" || names[1] != "gcp" {
		t.Fatalf("unexpected names: %v", names)
	}
}
