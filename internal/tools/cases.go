package tools

import (
	"context"
	"sort"

	"github.com/google/uuid"

	tarkaerrors "github.com/tarkyaio/tarka/internal/errors"
	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
	"github.com/tarkyaio/tarka/internal/store/searchquery"
)

// RegisterCases wires the global, read-only cases.* tools (spec.md §4.7)
// over the existing store.Store contract — there is no dedicated
// count/top/lookup aggregation method on Store, so these tools compose
// ListCases/Facets themselves rather than adding single-purpose SQL methods
// for a handful of chat-facing aggregates (DESIGN.md records this
// simplification).
func RegisterCases(r *Registry, st store.Store) {
	r.Register("cases.count", true, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		f := filterFromArgs(args)
		_, total, counts, err := st.ListCases(ctx, f)
		if err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: map[string]any{"total": total, "counts": counts}}
	})

	r.Register("cases.top", true, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		f := filterFromArgs(args)
		f.Limit = ArgInt(args, "limit", 500)
		groupBy, _ := ArgString(args, "group_by")
		if groupBy == "" {
			groupBy = "team"
		}
		items, _, _, err := st.ListCases(ctx, f)
		if err != nil {
			return errResult(err)
		}
		counts := map[string]int{}
		for _, c := range items {
			key := groupValue(c, groupBy)
			if key == "" {
				continue
			}
			counts[key]++
		}
		type row struct {
			Key   string `json:"key"`
			Count int    `json:"count"`
		}
		rows := make([]row, 0, len(counts))
		for k, v := range counts {
			rows = append(rows, row{Key: k, Count: v})
		}
		sort.Slice(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
		topN := ArgInt(args, "top_n", 10)
		if topN > 0 && len(rows) > topN {
			rows = rows[:topN]
		}
		return Result{OK: true, Result: rows}
	})

	r.Register("cases.lookup", true, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		caseID, ok := ArgString(args, "case_id")
		if !ok || caseID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		c, err := st.GetCase(ctx, caseID)
		if err != nil {
			return errResult(err)
		}
		if c == nil {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: c}
	})

	r.Register("cases.summary", true, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		caseID, ok := ArgString(args, "case_id")
		if !ok || caseID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		c, err := st.GetCase(ctx, caseID)
		if err != nil {
			return errResult(err)
		}
		if c == nil {
			return Result{OK: true, Result: nil}
		}
		run, err := st.LatestRunForCase(ctx, caseID)
		if err != nil {
			return errResult(err)
		}
		summary := map[string]any{"case": c}
		if run != nil {
			summary["latest_run"] = run
		}
		return Result{OK: true, Result: summary}
	})

	r.Register("actions.list", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		if inv.CaseID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		actions, err := st.ListActionsForCase(ctx, inv.CaseID)
		if err != nil {
			return errResult(err)
		}
		if len(actions) == 0 {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: actions}
	})

	r.Register("actions.propose", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		if inv.CaseID == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		actionType, _ := ArgString(args, "action_type")
		title, _ := ArgString(args, "title")
		if actionType == "" || title == "" {
			return Result{OK: false, Error: tarkaerrors.CodeCaseIDRequired}
		}
		risk, _ := ArgString(args, "risk")
		a := &models.ActionProposal{
			ActionID:   uuid.NewString(),
			CaseID:     inv.CaseID,
			ActionType: actionType,
			Title:      title,
			Status:     models.ActionProposed,
			ProposedBy: "assistant",
		}
		if risk != "" {
			a.Risk = &risk
		}
		if err := st.CreateAction(ctx, a); err != nil {
			return errResult(err)
		}
		return Result{OK: true, Result: a}
	})

	r.Register("memory.similar_cases", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		family, _ := ArgString(args, "family")
		cluster, _ := ArgString(args, "cluster")
		namespace, _ := ArgString(args, "namespace")
		workloadKind, _ := ArgString(args, "workload_kind")
		workloadName, _ := ArgString(args, "workload_name")
		excludeFingerprint, _ := ArgString(args, "exclude_fingerprint")
		limit := ArgInt(args, "limit", 5)

		runs, err := st.FindSimilarRuns(ctx, family, cluster, namespace, workloadKind, workloadName, excludeFingerprint, limit)
		if err != nil {
			return errResult(err)
		}
		if len(runs) == 0 {
			return Result{OK: true, Result: nil}
		}
		return Result{OK: true, Result: runs}
	})

	r.Register("memory.skills", false, func(ctx context.Context, inv *Invocation, args map[string]any) Result {
		// Distilled-playbook lookup: without a dedicated skills store this
		// degrades to "no skills matched" rather than fabricating content
		// (gated by MEMORY_ENABLED at the caller per spec.md §6/§4.7; this
		// handler is only registered when memory is enabled).
		return Result{OK: true, Result: nil}
	})
}

func filterFromArgs(args map[string]any) store.CaseFilter {
	f := store.CaseFilter{}
	if status, ok := ArgString(args, "status"); ok {
		f.Status = status
	}
	if family, ok := ArgString(args, "family"); ok {
		f.Family = family
	}
	if team, ok := ArgString(args, "team"); ok {
		f.Team = team
	}
	if service, ok := ArgString(args, "service"); ok {
		f.Service = service
	}
	if q, ok := ArgString(args, "q"); ok {
		f.Query = searchquery.Parse(q)
	}
	f.Limit = ArgInt(args, "limit", 1000)
	return f
}

func groupValue(c *models.Case, groupBy string) string {
	switch groupBy {
	case "team":
		if c.Team != nil {
			return *c.Team
		}
	case "family":
		if c.Family != nil {
			return *c.Family
		}
	case "service":
		if c.Service != nil {
			return *c.Service
		}
	}
	return ""
}
