package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tarkyaio/tarka/internal/models"
)

// TestModule_DiagnoseEachFamilyProducesATitledHypothesis exercises each
// family-specific module's Diagnose (spec.md §9 Module {applies, collect,
// diagnose}) directly, the way Registry.DiagnoseAll calls it during C3's
// pipeline (spec.md §4.3 step 5).
func TestModule_DiagnoseEachFamilyProducesATitledHypothesis(t *testing.T) {
	modules := map[string]Module{
		"crashloop":       &CrashloopModule{},
		"cpu_throttling":  &CPUThrottlingModule{},
		"oom_killed":      &OOMKilledModule{},
		"memory_pressure": &MemoryPressureModule{},
		"http_5xx":        &HTTP5xxModule{},
		"pod_not_healthy": &PodNotHealthyModule{},
		"job_failed":      &JobFailedModule{},
	}
	inv := models.NewInvestigation(models.Alert{}, models.Target{}, models.TimeWindow{})

	for family, m := range modules {
		assert.True(t, m.Applies(family), "family=%s", family)
		hyps := m.Diagnose(inv)
		assert.NotEmpty(t, hyps, "family=%s", family)
		assert.NotEmpty(t, hyps[0].Title, "family=%s", family)
		assert.Equal(t, family, hyps[0].Label, "family=%s", family)
	}
}

// TestBaselineModules_DiagnoseReturnsNil documents that the two baselines
// (applicable to many families) never themselves propose hypotheses — only
// the family-specific modules above do.
func TestBaselineModules_DiagnoseReturnsNil(t *testing.T) {
	inv := models.NewInvestigation(models.Alert{}, models.Target{}, models.TimeWindow{})
	assert.Nil(t, (&PodBaseline{}).Diagnose(inv))
	assert.Nil(t, (&NonPodBaseline{}).Diagnose(inv))
}
