package tools

import (
	"context"

	"github.com/tarkyaio/tarka/internal/alertid"
	"github.com/tarkyaio/tarka/internal/awsclient"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/promclient"
	"github.com/tarkyaio/tarka/internal/store"
)

// Deps bundles every dependency the full tool catalog needs (spec.md §4.7
// case-scoped and global tool sets), mirroring the evidence package's Deps
// shape (internal/evidence/collectors.go) so C7 shares the exact same
// per-cluster client registries C2/C3 already cache.
type Deps struct {
	Clusters  *k8sclient.Registry
	Metrics   *promclient.Registry
	AWS       *awsclient.Registry
	Store     store.Store
	RegionForCluster func(cluster string) string

	GitHub       GitHubConfig
	GitHubOrg    string
	ArgoCD       ArgoCDConfig
	GitHubEnabled bool
	AWSEnabled    bool
	ArgoCDEnabled bool
	MemoryEnabled bool

	Rerun        RerunConfig
	AlertForCase func(ctx context.Context, caseID string) (alertid.RawAlert, bool, error)
}

// Build assembles the full Registry: every tool spec.md §4.7 names, gated
// at registration time by the Deps flags that mirror CHAT_ALLOW_*/
// AWS_EVIDENCE_ENABLED/MEMORY_ENABLED config (so a disabled integration
// simply has no handler rather than a runtime branch in every call site).
func Build(deps Deps) *Registry {
	r := NewRegistry()

	if deps.Clusters != nil {
		RegisterK8s(r, deps.Clusters)
	}
	if deps.Metrics != nil {
		RegisterProm(r, deps.Metrics)
	}
	if deps.AWSEnabled && deps.AWS != nil {
		RegisterAWS(r, deps.AWS, deps.Clusters, deps.RegionForCluster)
	}
	if deps.GitHubEnabled {
		RegisterGitHub(r, deps.GitHub, deps.GitHubOrg)
	}
	if deps.ArgoCDEnabled {
		RegisterArgoCD(r, deps.ArgoCD)
	}
	if deps.Store != nil {
		RegisterCases(r, deps.Store)
	}
	if deps.Rerun.Pipeline != nil && deps.AlertForCase != nil {
		RegisterRerun(r, deps.Rerun, deps.AlertForCase)
	}
	if !deps.MemoryEnabled {
		r.unregisterMemory()
	}

	return r
}

// unregisterMemory removes the memory.* handlers registered by
// RegisterCases when MEMORY_ENABLED is false, so the planner's tool
// catalog (Names) never lists a tool that would silently no-op.
func (r *Registry) unregisterMemory() {
	delete(r.tools, "memory.similar_cases")
	delete(r.tools, "memory.skills")
}
