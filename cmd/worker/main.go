// Command worker runs C6: the queue consumer that turns each dequeued
// alert into a stored, indexed investigation run (spec.md §4.6, §5).
package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/zapr"
	_ "github.com/lib/pq"
	"k8s.io/klog/v2"

	"github.com/tarkyaio/tarka/internal/awsclient"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/investigation"
	"github.com/tarkyaio/tarka/internal/jobworker"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/llm/provider/anthropic"
	"github.com/tarkyaio/tarka/internal/logging"
	"github.com/tarkyaio/tarka/internal/migrations"
	"github.com/tarkyaio/tarka/internal/objectstore"
	"github.com/tarkyaio/tarka/internal/policy"
	"github.com/tarkyaio/tarka/internal/promclient"
	"github.com/tarkyaio/tarka/internal/queue"
	"github.com/tarkyaio/tarka/internal/rca"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, zapCore := logging.NewWithZap("json", "info")
	klog.SetLogger(zapr.NewLogger(zapCore))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DBAutoMigrate && cfg.PostgresDSN != "" {
		if err := runMigrations(cfg.PostgresDSN); err != nil {
			log.Error("worker: migration failed", "err", err)
			os.Exit(1)
		}
	}

	st, err := buildStore(cfg)
	if err != nil {
		log.Error("worker: building store", "err", err)
		os.Exit(1)
	}
	if st != nil {
		defer st.Close()
	}

	objects := objectstore.NewS3Registry()
	bucketStore, err := resolveBucket(ctx, objects, cfg)
	if err != nil {
		log.Error("worker: building object store", "err", err)
		os.Exit(1)
	}

	clusters := k8sclient.NewRegistry(func(cluster string) k8sclient.Options {
		return k8sclient.Options{}
	})
	metrics := promclient.NewRegistry(func(cluster string) (string, float64, int) {
		return cfg.PrometheusURL, 10, 20
	})
	aws := awsclient.NewRegistry()

	pipeline := investigation.NewPipeline(evidence.BuildRegistry(evidence.Deps{
		Clusters: clusters,
		Metrics:  metrics,
		AWS:      aws,
		AWSRegionForCluster: func(string) string { return cfg.ObjectStoreRegion },
	}))

	rcaGraph, rcaAllowed, err := buildRCA(ctx, cfg, clusters, metrics, aws, st)
	if err != nil {
		log.Error("worker: building RCA graph", "err", err)
		os.Exit(1)
	}

	q, err := buildQueue(ctx, cfg)
	if err != nil {
		log.Error("worker: building queue", "err", err)
		os.Exit(1)
	}

	w := jobworker.New(q, jobworker.Deps{
		Pipeline:          pipeline,
		Objects:           bucketStore,
		Store:             st,
		BucketHours:       cfg.BucketHours,
		RCA:               rcaGraph,
		RCAAllowedTools:   rcaAllowed,
		ObjectStorePrefix: cfg.ObjectStorePrefix,
		Logger:            log,
	})

	log.Info("worker: running", "concurrency", cfg.WorkerConcurrency)
	if err := w.Run(ctx, cfg.WorkerConcurrency); err != nil {
		log.Error("worker: run exited", "err", err)
		os.Exit(1)
	}
	log.Info("worker: stopped")
}

func runMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Run(db)
}

func buildStore(cfg *config.Config) (store.Store, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil
	}
	return store.NewPostgres(cfg.PostgresDSN)
}

func resolveBucket(ctx context.Context, reg *objectstore.Registry, cfg *config.Config) (objectstore.Store, error) {
	if cfg.ObjectStoreBucket == "" {
		return objectstore.NewMemory(), nil
	}
	return reg.Get(ctx, cfg.ObjectStoreBucket, cfg.ObjectStoreRegion)
}

func buildQueue(ctx context.Context, cfg *config.Config) (queue.Queue, error) {
	if cfg.RedisURL == "" {
		return queue.NewMemory(256), nil
	}
	return queue.NewRedis(ctx, cfg.RedisURL, cfg.QueueStreamName, "tarka-workers", "worker")
}

// buildRCA wires C8 only when an LLM provider is configured; a worker
// deployment that leaves RCA to interactive chat runs with a nil Graph
// (spec.md §4.6 step 5 "optionally invoke C8").
func buildRCA(ctx context.Context, cfg *config.Config, clusters *k8sclient.Registry, metrics *promclient.Registry, aws *awsclient.Registry, st store.Store) (*rca.Graph, []string, error) {
	if cfg.LLMAPIKey == "" {
		return nil, nil, nil
	}
	client, err := buildLLM(cfg)
	if err != nil {
		return nil, nil, err
	}
	toolPolicy, err := policy.NewToolEvaluator(ctx)
	if err != nil {
		return nil, nil, err
	}
	registry := tools.Build(tools.Deps{
		Clusters:         clusters,
		Metrics:          metrics,
		AWS:              aws,
		Store:            st,
		RegionForCluster: func(string) string { return cfg.ObjectStoreRegion },
		AWSEnabled:       cfg.AWSEvidenceEnabled,
		GitHubEnabled:    false,
		ArgoCDEnabled:    false,
		MemoryEnabled:    cfg.MemoryEnabled,
	})
	executor := tools.NewExecutor(registry, toolPolicy, cfg.LLMRedactInfrastructure)
	graph := rca.NewGraph(client, executor, registry, rca.DefaultBudget, cfg.RCAConfidenceThreshold)
	return graph, registry.Names(false), nil
}

func buildLLM(cfg *config.Config) (llm.Client, error) {
	return anthropic.New(cfg.LLMAPIKey, cfg.LLMModel)
}
