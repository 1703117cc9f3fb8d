// Package investigation implements C3: the deterministic investigation
// pipeline that turns a normalized alert into a fully analyzed
// Investigation — normalize, detect family, collect evidence, extract
// features, generate hypotheses, score, and attach change/capacity
// sub-records. Grounded on the teacher's service-layer orchestration shape
// (kubilitics-backend/internal/service), which sequences several
// best-effort sub-fetches into one aggregate result.
package investigation

import (
	"context"
	"time"

	"github.com/tarkyaio/tarka/internal/alertid"
	"github.com/tarkyaio/tarka/internal/evidence"
	"github.com/tarkyaio/tarka/internal/models"
)

// DefaultConfidenceThreshold is the top-hypothesis-confidence cutoff below
// which C8's need_more_evidence stays true (spec.md §4.8); kept here too
// since classification in C3 uses the same notion of "strong enough".
const DefaultConfidenceThreshold = 70

// Pipeline runs C3's deterministic stages over a collector Registry.
type Pipeline struct {
	Collectors *evidence.Registry
	// LogSnippetCap bounds the actionable log snippet attached to the
	// report renderer (spec.md §4.3 "Deterministic log snippet selection").
	LogSnippetCap int
}

// NewPipeline builds a Pipeline over the given collector registry.
func NewPipeline(collectors *evidence.Registry) *Pipeline {
	return &Pipeline{Collectors: collectors, LogSnippetCap: 20}
}

// RawInvestigationInput is everything the entry point needs: the raw
// webhook alert, the configured default time window, and "now" (passed
// explicitly since Date.now()-equivalents must never be called implicitly
// inside deterministic pipeline code under test).
type RawInvestigationInput struct {
	Raw    alertid.RawAlert
	Window time.Duration
	Now    time.Time
}

// Run executes spec.md §4.3's entry point `run_investigation(alert,
// time_window)`: normalize → detect family → collect → extract features →
// hypotheses → score → change/capacity → return. Every stage is
// best-effort; a stage's internal failure is recorded on
// Investigation.Errors and execution continues.
func (p *Pipeline) Run(ctx context.Context, in RawInvestigationInput) *models.Investigation {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	alert := alertid.NormalizeAlert(in.Raw, now)
	family := alertid.DetectFamily(alert.Name(), alert.Labels)
	target := alertid.DeriveTarget(family, alert.Labels)
	target.Playbook = family

	window := in.Window
	if window <= 0 {
		window = time.Hour
	}
	tw := models.TimeWindow{
		Window:    window,
		StartTime: now.Add(-window),
		EndTime:   now,
	}

	inv := models.NewInvestigation(alert, target, tw)

	p.Collectors.CollectAll(ctx, family, inv)

	inv.Analysis.Features = ExtractFeatures(inv)

	hyps := p.Collectors.DiagnoseAll(family, inv)
	inv.Analysis.Hypotheses = ClampHypotheses(hyps)

	scores, verdict := Score(family, inv.Analysis.Features, inv.Analysis.Hypotheses)
	inv.Analysis.Scores = scores
	inv.Analysis.Verdict = verdict

	inv.Analysis.Change = CorrelateChange(inv)
	inv.Analysis.Capacity = CapacityReport(inv)

	return inv
}
