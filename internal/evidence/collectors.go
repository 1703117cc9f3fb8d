package evidence

import (
	"context"

	"github.com/tarkyaio/tarka/internal/awsclient"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/promclient"
)

// Deps bundles the shared, per-cluster-cached clients every collector
// module needs (spec.md §5 Shared resources).
type Deps struct {
	Clusters *k8sclient.Registry
	Metrics  *promclient.Registry
	AWS      *awsclient.Registry
	AWSRegionForCluster func(cluster string) string
	ECRProbe            func(ctx context.Context, region, accountID, repository, tag string) (string, error)
}

// BuildRegistry assembles the full C2 module registry: the two baselines
// plus every family-specific collector, in the order spec.md §4.2 lists
// them.
func BuildRegistry(deps Deps) *Registry {
	r := NewRegistry()

	r.Register(&PodBaseline{Clusters: deps.Clusters})
	r.Register(&NonPodBaseline{Clusters: deps.Clusters, Metrics: deps.Metrics})

	r.Register(&CrashloopModule{Clusters: deps.Clusters})
	r.Register(&CPUThrottlingModule{Metrics: deps.Metrics})
	r.Register(&OOMKilledModule{})
	r.Register(&MemoryPressureModule{})
	r.Register(&HTTP5xxModule{Metrics: deps.Metrics})
	r.Register(&PodNotHealthyModule{Clusters: deps.Clusters, ECRProbe: deps.ECRProbe})
	r.Register(&JobFailedModule{Clusters: deps.Clusters, AWS: deps.AWS, AWSRegion: deps.AWSRegionForCluster})

	return r
}
