// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/pkg/types"
)

const defaultTopSuggestions = 5

// impactWeights rank UNCERTAIN between LOW and MEDIUM; an unknown
// upside still beats a known-small one.
var impactWeights = map[types.ImpactLevel]float64{
	types.ImpactHigh:      3.0,
	types.ImpactMedium:    2.0,
	types.ImpactUncertain: 1.5,
	types.ImpactLow:       1.0,
}

// PivotSource produces raw match judgments for candidate gaps.
type PivotSource interface {
	MatchPivots(ctx context.Context, profile types.ResearchProfile, assessment types.NoveltyAssessment, gaps []types.GapEntry) ([]llm.PivotMatch, error)
}

// Matcher turns raw pivot judgments into a ranked suggestion list.
type Matcher struct {
	source PivotSource
	log    *zap.Logger
}

// NewMatcher builds a Matcher over the given judgment source.
func NewMatcher(source PivotSource, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{source: source, log: log}
}

// Match ranks candidate gaps for the researcher by relevance times
// impact weight and returns the top N, best first. topN at or below
// zero means the default of five. Failures degrade to an empty list;
// pivot suggestions are advisory and never block an assessment.
func (m *Matcher) Match(ctx context.Context, profile types.ResearchProfile, assessment types.NoveltyAssessment, candidates []types.GapEntry, topN int) []types.PivotSuggestion {
	if len(candidates) == 0 {
		return nil
	}
	if topN <= 0 {
		topN = defaultTopSuggestions
	}

	matches, err := m.source.MatchPivots(ctx, profile, assessment, candidates)
	if err != nil {
		m.log.Warn("pivot matching failed", zap.Error(err))
		return nil
	}

	type scored struct {
		suggestion types.PivotSuggestion
		composite  float64
	}
	ranked := make([]scored, 0, len(matches))
	for _, match := range matches {
		if match.GapIndex < 0 || match.GapIndex >= len(candidates) {
			m.log.Warn("dropping pivot match with out-of-range gap index",
				zap.Int("gap_index", match.GapIndex),
				zap.Int("candidates", len(candidates)))
			continue
		}
		impact := normalizeImpact(match.ImpactPotential)
		relevance := clamp01(match.RelevanceScore)
		ranked = append(ranked, scored{
			suggestion: types.PivotSuggestion{
				Gap:             candidates[match.GapIndex],
				RelevanceScore:  relevance,
				ImpactPotential: impact,
				MatchReasoning:  match.MatchReasoning,
				Feasibility:     match.Feasibility,
				ImpactRationale: match.ImpactRationale,
			},
			composite: relevance * impactWeights[impact],
		})
	}
	if len(ranked) == 0 {
		return nil
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].composite > ranked[b].composite
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	suggestions := make([]types.PivotSuggestion, len(ranked))
	for i, s := range ranked {
		suggestions[i] = s.suggestion
	}
	return suggestions
}

// normalizeImpact maps a free-text impact judgment onto the known
// levels, defaulting to MEDIUM rather than discarding the match.
func normalizeImpact(raw string) types.ImpactLevel {
	switch types.ImpactLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case types.ImpactHigh:
		return types.ImpactHigh
	case types.ImpactLow:
		return types.ImpactLow
	case types.ImpactUncertain:
		return types.ImpactUncertain
	default:
		return types.ImpactMedium
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
