package investigation

import (
	"github.com/tarkyaio/tarka/internal/models"
)

// ClampHypotheses clamps confidence to [0,100] (spec.md §4.3 step 5) and
// drops hypotheses with no title, never raising on malformed input. Every
// hypothesis reaching this point was produced by a family module's
// Diagnose (spec.md §9 Module {applies, collect, diagnose}); this is the
// one place that enforces the shared [0,100] contract regardless of which
// module produced the value.
func ClampHypotheses(in []models.Hypothesis) []models.Hypothesis {
	out := make([]models.Hypothesis, 0, len(in))
	for _, h := range in {
		if h.Title == "" {
			continue
		}
		if h.Confidence0To100 < 0 {
			h.Confidence0To100 = 0
		}
		if h.Confidence0To100 > 100 {
			h.Confidence0To100 = 100
		}
		out = append(out, h)
	}
	return out
}
