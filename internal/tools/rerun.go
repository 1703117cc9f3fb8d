package tools

import (
	"context"
	"time"

	"github.com/tarkyaio/tarka/internal/alertid"
	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/investigation"
	"github.com/tarkyaio/tarka/internal/models"
)

// RerunConfig supplies rerun.investigation's inputs: the pipeline to drive
// and the policy's maximum allowed time window (spec.md §4.7).
type RerunConfig struct {
	Pipeline             *investigation.Pipeline
	MaxTimeWindowSeconds int
}

// RegisterRerun wires rerun.investigation (spec.md §4.7): historical by
// default (uses the alert's original start time), or `now` to substitute
// the current time and mark the investigation active.
func RegisterRerun(r *Registry, cfg RerunConfig, alertForCase func(ctx context.Context, caseID string) (alertid.RawAlert, bool, error)) {
	r.Register("rerun.investigation", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		if inv.CaseID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		windowSeconds := ArgInt(args, "time_window", 0)
		if windowSeconds <= 0 {
			return Result{OK: false, Error: tarkaerrors.CodeTimeWindowRequired}
		}
		if cfg.MaxTimeWindowSeconds > 0 && windowSeconds > cfg.MaxTimeWindowSeconds {
			return Result{OK: false, Error: tarkaerrors.CodeTimeWindowTooLarge}
		}

		referenceTime, _ := ArgString(args, "reference_time")
		if referenceTime == "" {
			referenceTime = "original"
		}
		if referenceTime != "original" && referenceTime != "now" {
			return Result{OK: false, Error: tarkaerrors.CodeReferenceTimeInvalid}
		}

		raw, found, err := alertForCase(ctx, inv.CaseID)
		if err != nil {
			return errResult(err)
		}
		if !found {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}

		now := time.Now().UTC()
		if referenceTime == "now" {
			raw.StartsAt = now
		}

		out := cfg.Pipeline.Run(ctx, investigation.RawInvestigationInput{
			Raw:    raw,
			Window: time.Duration(windowSeconds) * time.Second,
			Now:    now,
		})

		status := "historical"
		if referenceTime == "now" {
			status = "active"
			out.Meta["status"] = "active"
		}

		return Result{OK: true, Result: map[string]any{
			"status":      status,
			"verdict":     out.Analysis.Verdict,
			"hypotheses":  out.Analysis.Hypotheses,
			"errors":      out.Errors,
		}, UpdatedAnalysis: snapshotToMap(models.BuildSnapshot(out))}
	})
}

func snapshotToMap(s models.AnalysisSnapshot) map[string]any {
	return map[string]any{
		"schema_version": s.SchemaVersion,
		"verdict":        s.Analysis.Verdict,
		"scores":         s.Analysis.Scores,
		"hypotheses":     s.Analysis.Hypotheses,
	}
}
