// Package memory implements GET /api/v1/cases/{id}/memory: similar past
// cases plus matched skill/playbook entries, returned empty when
// MEMORY_ENABLED is off (spec.md §6). Grounded on the supplemented
// original_source/agent/memory/* feature (SPEC_FULL.md §4.13) and reusing
// C4's FindSimilarRuns rather than introducing a dedicated vector store —
// DESIGN.md records this as the deliberately narrower reimplementation.
package memory

import (
	"context"

	"github.com/tarkyaio/tarka/internal/models"
	"github.com/tarkyaio/tarka/internal/store"
)

// Result is the payload GET /api/v1/cases/{id}/memory returns.
type Result struct {
	SimilarCases []*models.Run `json:"similar_cases"`
	Skills       []Skill       `json:"skills"`
}

// Skill is one matched distilled-playbook entry. The current
// implementation never has any skills to match (no dedicated skills store
// exists, see tools.RegisterCases's memory.skills handler), so Lookup
// always returns an empty slice here; the type exists so the API response
// shape is stable once a skills store is introduced.
type Skill struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Lookup returns similar past runs for the given case's identity, or a
// zero Result when enabled is false.
func Lookup(ctx context.Context, st store.Store, enabled bool, fields store.IdentityFields, excludeFingerprint string) (Result, error) {
	if !enabled || st == nil {
		return Result{}, nil
	}
	runs, err := st.FindSimilarRuns(ctx, "", fields.Cluster, fields.Namespace, fields.WorkloadKind, fields.WorkloadName, excludeFingerprint, 5)
	if err != nil {
		return Result{}, err
	}
	return Result{SimilarCases: runs, Skills: []Skill{}}, nil
}
