package investigation

import (
	"fmt"

	"github.com/tarkyaio/tarka/internal/models"
)

// Score computes impact/confidence/noise scores, a classification, and a
// one-liner verdict from the family, extracted features, and generated
// hypotheses (spec.md §4.3 step 6).
func Score(family string, f models.Features, hyps []models.Hypothesis) (models.Scores, models.Verdict) {
	top := topHypothesis(hyps)

	confidenceScore := 0.0
	primaryDriver := ""
	if top != nil {
		confidenceScore = float64(top.Confidence0To100)
		primaryDriver = top.HypothesisID
	}

	impactScore := impactFor(family, f)
	noiseScore := noiseFor(family, f, confidenceScore)

	classification := classify(f, confidenceScore, noiseScore)

	verdict := models.Verdict{
		Severity:       severityFor(impactScore),
		Classification: classification,
		PrimaryDriver:  primaryDriver,
		OneLiner:       oneLiner(family, top, f),
		Family:         models.Family(family),
		Next:           nextSteps(top),
	}

	scores := models.Scores{
		ImpactScore:     impactScore,
		ConfidenceScore: confidenceScore,
		NoiseScore:      noiseScore,
		Classification:  classification, // denormalized copy; SSOT is verdict.Classification (DESIGN.md #2)
	}

	return scores, verdict
}

func topHypothesis(hyps []models.Hypothesis) *models.Hypothesis {
	var top *models.Hypothesis
	for i := range hyps {
		if top == nil || hyps[i].Confidence0To100 > top.Confidence0To100 {
			top = &hyps[i]
		}
	}
	return top
}

func impactFor(family string, f models.Features) float64 {
	score := 20.0
	switch family {
	case "crashloop", "oom_killed":
		score = 60
	case "http_5xx":
		score = 50 + clampedScale(f.HTTP5xxRateP95, 0, 20, 0, 30)
	case "job_failed":
		score = 45
	case "cpu_throttling", "memory_pressure":
		score = 35
	}
	if f.Quality.EvidenceQuality == "low" {
		score *= 0.7
	}
	return clamp(score, 0, 100)
}

func noiseFor(family string, f models.Features, confidence float64) float64 {
	noise := 100 - confidence
	if len(f.Quality.ContradictionFlags) > 0 {
		noise += 15
	}
	if family == "target_down" || family == "observability_pipeline" || family == "meta" {
		noise += 20
	}
	return clamp(noise, 0, 100)
}

func classify(f models.Features, confidence, noise float64) string {
	switch {
	case confidence >= 60 && noise < 50 && f.Quality.EvidenceQuality != "low":
		return "actionable"
	case noise >= 70:
		return "noisy"
	default:
		return "informational"
	}
}

func severityFor(impact float64) string {
	switch {
	case impact >= 70:
		return "critical"
	case impact >= 40:
		return "warning"
	default:
		return "info"
	}
}

func oneLiner(family string, top *models.Hypothesis, f models.Features) string {
	if top == nil {
		return fmt.Sprintf("%s alert with insufficient evidence to form a hypothesis", family)
	}
	return fmt.Sprintf("%s (%d%% confidence): %s", top.Title, top.Confidence0To100, family)
}

func nextSteps(top *models.Hypothesis) []string {
	if top == nil {
		return nil
	}
	return top.NextTests
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampedScale(v, inLo, inHi, outLo, outHi float64) float64 {
	if inHi == inLo {
		return outLo
	}
	t := (v - inLo) / (inHi - inLo)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return outLo + t*(outHi-outLo)
}
