// Package jobworker implements C6: the queue consumer that turns one
// dequeued AlertJob into a stored, indexed investigation run, optionally
// deepened by C8. Grounded on the teacher's addon/scanner worker-pool shape
// (internal/addon/scanner/scanner.go's errgroup.WithContext fan-out over a
// fixed concurrency) generalized from a fixed scan list to an unbounded
// queue.Consume channel (spec.md §4.6, §5 "Worker (C6) consumes from the
// queue with N parallel workers, one investigation per message").
package jobworker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tarkyaio/tarka/internal/alertid"
	"github.com/tarkyaio/tarka/internal/investigation"
	"github.com/tarkyaio/tarka/internal/logging"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/objectstore"
	"github.com/tarkyaio/tarka/internal/queue"
	"github.com/tarkyaio/tarka/internal/rca"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/tools"
)

// Deps bundles everything C6 needs to turn one AlertJob into a stored run.
type Deps struct {
	Pipeline *investigation.Pipeline
	Objects  objectstore.Store
	Store    store.Store

	BucketHours int

	// RCA is nil when C8 should never be invoked from the worker (e.g. a
	// deployment that only runs RCA interactively from chat).
	RCA             *rca.Graph
	RCAAllowedTools []string

	ObjectStorePrefix string
	Logger            *slog.Logger
}

// Worker drains a queue.Queue with a bounded pool of goroutines, each
// strictly sequential over the messages it pulls (spec.md §5).
type Worker struct {
	queue queue.Queue
	deps  Deps
}

// New builds a Worker over q.
func New(q queue.Queue, deps Deps) *Worker {
	return &Worker{queue: q, deps: deps}
}

// Run consumes from the queue with concurrency goroutines until ctx is
// canceled or the channel closes. A panic or error inside one message's
// processing never aborts the pool — per-step try/continue happens inside
// processJob, so Run itself never returns a non-nil error except when
// Consume fails to start.
func (w *Worker) Run(ctx context.Context, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	msgs, err := w.queue.Consume(ctx)
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gCtx.Done():
					return nil
				case msg, ok := <-msgs:
					if !ok {
						return nil
					}
					w.processMessage(gCtx, msg)
				}
			}
		})
	}
	return g.Wait()
}

func (w *Worker) processMessage(ctx context.Context, msg queue.Message) {
	log := logging.FromContext(ctx, w.deps.Logger)
	defer func() {
		if r := recover(); r != nil {
			log.Error("jobworker: panic processing message", "alertname", msg.Job.Alert.Name(), "recover", r)
		}
	}()

	w.processJob(ctx, msg.Job, log)

	if msg.Ack != nil {
		if err := msg.Ack(ctx); err != nil {
			log.Error("jobworker: ack failed", "alertname", msg.Job.Alert.Name(), "err", err)
		}
	}
}

// processJob implements spec.md §4.6's five steps. Every step is wrapped so
// a single bad alert can never poison the worker: failures are logged and
// the job is abandoned at that step rather than panicking or retrying
// inline.
func (w *Worker) processJob(ctx context.Context, job queue.AlertJob, log *slog.Logger) {
	now := time.Now().UTC()

	// Step 1: re-normalize, re-derive identity, compute rel_key.
	raw := toRawAlert(job.Alert)
	alert := alertid.NormalizeAlert(raw, now)
	alertname := alert.Name()
	family := alertid.DetectFamily(alertname, alert.Labels)
	bucketHours := w.deps.BucketHours
	if bucketHours <= 0 {
		bucketHours = 4
	}
	relKey := alertid.QueueMsgID(alertname, family, alert.Labels, alert.Fingerprint, now, bucketHours)
	rolloutRefresh := alertid.RolloutNoisyAlertnames[alertname]

	// Step 2: freshness/idempotency gate.
	if w.deps.Objects != nil {
		reportKey := objectstore.ReportKey(w.deps.ObjectStorePrefix, alertname, relKey)
		exists, lastModified, err := w.deps.Objects.Head(ctx, reportKey)
		if err != nil {
			log.Error("jobworker: object head failed", "alertname", alertname, "err", err)
		} else if !objectstore.ShouldWrite(exists, lastModified, rolloutRefresh, now) {
			log.Info("jobworker: skipping, report is fresh", "alertname", alertname, "rel_key", relKey)
			return
		}
	}

	// Step 3: run C3, render, write MD + JSON.
	if w.deps.Pipeline == nil {
		log.Error("jobworker: no investigation pipeline configured", "alertname", alertname)
		return
	}
	inv := w.deps.Pipeline.Run(ctx, investigation.RawInvestigationInput{
		Raw:    raw,
		Window: job.TimeWindow,
		Now:    now,
	})

	var reportKey, investigationKey string
	if w.deps.Objects != nil {
		reportKey = objectstore.ReportKey(w.deps.ObjectStorePrefix, alertname, relKey)
		investigationKey = objectstore.InvestigationKey(w.deps.ObjectStorePrefix, alertname, relKey)

		md := investigation.RenderMarkdown(inv, w.deps.Pipeline.LogSnippetCap)
		if err := w.deps.Objects.Put(ctx, reportKey, []byte(md), "text/markdown; charset=utf-8"); err != nil {
			log.Error("jobworker: report put failed", "alertname", alertname, "err", err)
		}

		snapshot := models.BuildSnapshot(inv)
		snapshotJSON, err := jsonMarshal(snapshot)
		if err != nil {
			log.Error("jobworker: snapshot marshal failed", "alertname", alertname, "err", err)
		} else if err := w.deps.Objects.Put(ctx, investigationKey, snapshotJSON, "application/json"); err != nil {
			log.Error("jobworker: investigation put failed", "alertname", alertname, "err", err)
		}
	}

	// Step 4: index the run, update the case.
	var run *models.Run
	if w.deps.Store != nil {
		match, err := store.Incidentize(ctx, w.deps.Store, now, family, inv.Target)
		if err != nil {
			log.Error("jobworker: incidentize failed", "alertname", alertname, "err", err)
		} else {
			snapshotJSON, _ := jsonMarshal(models.BuildSnapshot(inv))
			run = &models.Run{
				RunID:              uuidString(),
				CaseID:             match.Case.CaseID,
				CreatedAt:          now,
				Fingerprint:        alert.Fingerprint,
				Family:             family,
				Classification:     inv.Analysis.Verdict.Classification,
				S3ReportKey:        reportKey,
				S3InvestigationKey: investigationKey,
				AnalysisSnapshot:   snapshotJSON,
			}
			if inv.Target.Cluster != "" {
				run.Cluster = strPtr(inv.Target.Cluster)
			}
			if inv.Target.Namespace != "" {
				run.Namespace = strPtr(inv.Target.Namespace)
			}
			if inv.Target.WorkloadKind != "" {
				run.WorkloadKind = strPtr(inv.Target.WorkloadKind)
			}
			if inv.Target.WorkloadName != "" {
				run.WorkloadName = strPtr(inv.Target.WorkloadName)
			}
			if err := w.deps.Store.CreateRun(ctx, run); err != nil {
				log.Error("jobworker: create run failed", "alertname", alertname, "err", err)
			}
			if err := w.deps.Store.UpdateCaseFromRun(ctx, match.Case.CaseID, run, inv.Analysis.Verdict.OneLiner, inv.Analysis.Verdict.PrimaryDriver, family); err != nil {
				log.Error("jobworker: update case from run failed", "alertname", alertname, "err", err)
			}
			log.Info("jobworker: indexed run", "alertname", alertname, "case_id", match.Case.CaseID, "case_match_reason", match.Reason)
		}
	}

	// Step 5: optionally invoke C8, capturing tool events under
	// meta.rca_tool_events.
	if w.deps.RCA != nil {
		invocation := tools.Invocation{
			CaseID:    caseIDOf(run),
			Cluster:   inv.Target.Cluster,
			Namespace: inv.Target.Namespace,
			Allowed:   w.deps.RCAAllowedTools,
		}
		result, events := w.deps.RCA.RunCapturingEvents(ctx, inv, w.deps.RCAAllowedTools, invocation)
		inv.Analysis.RCA = result
		if inv.Meta == nil {
			inv.Meta = map[string]any{}
		}
		inv.Meta["rca_tool_events"] = events
		log.Info("jobworker: rca complete", "alertname", alertname, "status", result.Status, "tool_events", len(events))
	}
}

func caseIDOf(run *models.Run) string {
	if run == nil {
		return ""
	}
	return run.CaseID
}

func strPtr(s string) *string { return &s }

func toRawAlert(a models.Alert) alertid.RawAlert {
	return alertid.RawAlert{
		Status:       string(a.Status.State),
		Labels:       a.Labels,
		Annotations:  a.Annotations,
		StartsAt:     a.StartsAt,
		EndsAt:       a.EndsAt,
		GeneratorURL: a.GeneratorURL,
		Fingerprint:  a.Fingerprint,
	}
}
