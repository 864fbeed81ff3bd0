// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report derives the final advice from a novelty assessment and
// renders assessment results for the terminal and for save files.
package report

import (
	"math"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// Advice is the terminal recommendation with its confidence.
type Advice struct {
	Recommendation types.Recommendation `json:"recommendation" yaml:"recommendation"`
	Confidence     float64              `json:"confidence" yaml:"confidence"`
}

// Recommend applies the decision rules to a completed assessment. A solved
// or marginal question is a pivot regardless of impact; a novel question
// is only worth continuing when its expected impact clears LOW.
func Recommend(a types.NoveltyAssessment) Advice {
	var rec types.Recommendation
	switch {
	case a.Verdict == types.VerdictSolved || a.Verdict == types.VerdictMarginal:
		rec = types.RecommendPivot
	case a.ExpectedImpact == types.ImpactLow:
		rec = types.RecommendPivot
	case a.Verdict == types.VerdictNovel &&
		(a.ExpectedImpact == types.ImpactHigh || a.ExpectedImpact == types.ImpactMedium):
		rec = types.RecommendContinue
	default:
		rec = types.RecommendUncertain
	}
	return Advice{Recommendation: rec, Confidence: confidence(rec, a)}
}

// confidence expresses how firmly the evidence backs the recommendation.
// Continuing on a novel question gets the novelty score plus a margin;
// pivoting off a solved one the inverted score plus the same margin.
func confidence(rec types.Recommendation, a types.NoveltyAssessment) float64 {
	var c float64
	switch {
	case rec == types.RecommendContinue && a.Verdict == types.VerdictNovel:
		c = math.Min(1, a.Score+0.1)
	case rec == types.RecommendPivot &&
		(a.Verdict == types.VerdictSolved || a.Verdict == types.VerdictMarginal):
		c = math.Min(1, (1-a.Score)+0.1)
	case rec == types.RecommendUncertain:
		c = 0.5
	default:
		c = a.Score
	}
	if c < 0 {
		c = 0
	}
	if c > 1 {
		c = 1
	}
	return math.Round(c*100) / 100
}
