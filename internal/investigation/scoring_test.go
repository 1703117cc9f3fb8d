package investigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tarkyaio/tarka/internal/models"
)

func TestClampHypotheses_ClampsOutOfRangeConfidence(t *testing.T) {
	in := []models.Hypothesis{
		{Title: "a", Confidence0To100: 150},
		{Title: "b", Confidence0To100: -20},
		{Title: "", Confidence0To100: 50},
	}
	out := ClampHypotheses(in)
	assert.Len(t, out, 2, "hypotheses with no title must be dropped")
	assert.Equal(t, 100, out[0].Confidence0To100)
	assert.Equal(t, 0, out[1].Confidence0To100)
}

func TestScore_ClassificationSSOT(t *testing.T) {
	hyps := []models.Hypothesis{{HypothesisID: "x", Title: "X", Confidence0To100: 80}}
	f := models.Features{Quality: models.Quality{EvidenceQuality: "high"}}
	scores, verdict := Score("crashloop", f, hyps)

	assert.Equal(t, verdict.Classification, scores.Classification, "scores.Classification must always equal verdict.Classification (DESIGN.md decision #2)")
}

func TestScore_NoHypothesesProducesInformational(t *testing.T) {
	f := models.Features{Quality: models.Quality{EvidenceQuality: "low"}}
	scores, verdict := Score("generic", f, nil)
	assert.Equal(t, "", verdict.PrimaryDriver)
	assert.NotEqual(t, "actionable", scores.Classification)
}

func TestScore_HighConfidenceHighQualityIsActionable(t *testing.T) {
	hyps := []models.Hypothesis{{HypothesisID: "x", Title: "X", Confidence0To100: 90}}
	f := models.Features{Quality: models.Quality{EvidenceQuality: "high"}}
	scores, _ := Score("crashloop", f, hyps)
	assert.Equal(t, "actionable", scores.Classification)
}
