// Command api runs the console-facing HTTP surface: case/run reads, C9
// chat, and the actions workflow (spec.md §6, SPEC_FULL.md §0 "cmd/api").
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/zapr"
	_ "github.com/lib/pq"
	"k8s.io/klog/v2"

	"github.com/tarkyaio/tarka/internal/awsclient"
	"github.com/tarkyaio/tarka/internal/config"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/httpapi"
	"github.com/tarkyaio/tarka/internal/investigation"
	"github.com/tarkyaio/tarka/internal/k8sclient"
	"github.com/tarkyaio/tarka/internal/llm"
	"github.com/tarkyaio/tarka/internal/llm/provider/anthropic"
	"github.com/tarkyaio/tarka/internal/logging"
	"github.com/tarkyaio/tarka/internal/migrations"
	"github.com/tarkyaio/tarka/internal/policy"
	"github.com/tarkyaio/tarka/internal/promclient"
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
	ctx := context.Background()

	if cfg.DBAutoMigrate && cfg.PostgresDSN != "" {
		if err := runMigrations(cfg.PostgresDSN); err != nil {
			log.Error("api: migration failed", "err", err)
			os.Exit(1)
		}
	}

	st, err := buildStore(cfg)
	if err != nil {
		log.Error("api: building store", "err", err)
		os.Exit(1)
	}
	if st != nil {
		defer st.Close()
	}

	clusters := k8sclient.NewRegistry(func(cluster string) k8sclient.Options {
		return k8sclient.Options{}
	})
	metrics := promclient.NewRegistry(func(cluster string) (string, float64, int) {
		return cfg.PrometheusURL, 10, 20
	})
	aws := awsclient.NewRegistry()

	pipeline := investigation.NewPipeline(evidence.BuildRegistry(evidence.Deps{
		Clusters:            clusters,
		Metrics:             metrics,
		AWS:                 aws,
		AWSRegionForCluster: func(string) string { return cfg.ObjectStoreRegion },
	}))

	toolRegistry := tools.Build(tools.Deps{
		Clusters:         clusters,
		Metrics:          metrics,
		AWS:              aws,
		Store:            st,
		RegionForCluster: func(string) string { return cfg.ObjectStoreRegion },
		AWSEnabled:       cfg.AWSEvidenceEnabled,
		MemoryEnabled:    cfg.MemoryEnabled,
	})

	toolPolicy, err := policy.NewToolEvaluator(ctx)
	if err != nil {
		log.Error("api: preparing tool policy", "err", err)
		os.Exit(1)
	}
	actionPolicy, err := policy.NewActionEvaluator(ctx)
	if err != nil {
		log.Error("api: preparing action policy", "err", err)
		os.Exit(1)
	}
	toolExecutor := tools.NewExecutor(toolRegistry, toolPolicy, cfg.LLMRedactInfrastructure)

	var llmClient llm.Client
	var rcaGraph *rca.Graph
	if cfg.LLMAPIKey != "" {
		llmClient, err = anthropic.New(cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			log.Error("api: building llm client", "err", err)
			os.Exit(1)
		}
		rcaGraph = rca.NewGraph(llmClient, toolExecutor, toolRegistry, rca.DefaultBudget, cfg.RCAConfidenceThreshold)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Store:        st,
		Pipeline:     pipeline,
		RCA:          rcaGraph,
		LLM:          llmClient,
		ToolRegistry: toolRegistry,
		ToolExecutor: toolExecutor,
		ActionPolicy: actionPolicy,
		Config:       cfg,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", portOrDefault(cfg.Port)),
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	runWithGracefulShutdown(srv, cfg.ShutdownTimeout, log)
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

func portOrDefault(port int) int {
	if port <= 0 {
		return 8080
	}
	return port
}

// runWithGracefulShutdown starts srv and blocks until SIGINT/SIGTERM,
// draining in-flight requests within shutdownTimeout (spec.md §4.11
// ambient stack: graceful shutdown on SIGTERM/SIGINT).
func runWithGracefulShutdown(srv *http.Server, shutdownTimeout time.Duration, log *slog.Logger) {
	errCh := make(chan error, 1)
	go func() {
		log.Info("api: listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("api: server error", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		log.Info("api: shutting down", "signal", sig.String())
		if shutdownTimeout <= 0 {
			shutdownTimeout = 15 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("api: shutdown error", "err", err)
		}
	}
}
