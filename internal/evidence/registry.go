package evidence

import (
	"context"

	"github.com/tarkyaio/tarka/internal/models"
)

// Module is a composable evidence-collection unit (spec.md §4.3 step 3:
// "Collectors may also be composed via a module registry where each module
// declares applies(), collect(), and diagnose()"). Grounded on the
// teacher's topology package's pluggable-resolver registration pattern
// (kubilitics-backend/internal/topology).
type Module interface {
	// Name identifies the module for logging/errors breadcrumbs.
	Name() string
	// Applies reports whether this module should run for the given family.
	Applies(family string) bool
	// Collect gathers evidence into inv, appending to inv.Errors on
	// failure. Never panics.
	Collect(ctx context.Context, inv *models.Investigation)
	// Diagnose proposes hypotheses from features already populated on
	// inv.Analysis.Features. Returns nil if the module has nothing to add.
	Diagnose(inv *models.Investigation) []models.Hypothesis
}

// Registry holds the ordered set of registered Modules.
type Registry struct {
	modules []Module
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends m to the registry. Order determines collection and
// diagnosis order.
func (r *Registry) Register(m Module) {
	r.modules = append(r.modules, m)
}

// CollectAll runs Collect on every module whose Applies(family) is true.
// A module that panics is recovered and recorded as a best-effort error —
// collectors must never bring down the pipeline (spec.md §4.2 contract).
func (r *Registry) CollectAll(ctx context.Context, family string, inv *models.Investigation) {
	for _, m := range r.modules {
		if !m.Applies(family) {
			continue
		}
		r.safeCollect(ctx, m, inv)
	}
}

func (r *Registry) safeCollect(ctx context.Context, m Module, inv *models.Investigation) {
	defer func() {
		if rec := recover(); rec != nil {
			inv.AddError(m.Name(), panicError{rec})
		}
	}()
	m.Collect(ctx, inv)
}

// DiagnoseAll runs Diagnose on every applicable module and concatenates
// their hypotheses.
func (r *Registry) DiagnoseAll(family string, inv *models.Investigation) []models.Hypothesis {
	var out []models.Hypothesis
	for _, m := range r.modules {
		if !m.Applies(family) {
			continue
		}
		out = append(out, m.Diagnose(inv)...)
	}
	return out
}

type panicError struct{ v any }

func (p panicError) Error() string {
	return "panic recovered in collector module"
}
