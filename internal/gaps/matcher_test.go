package gaps

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/pkg/types"
)

type fakePivotSource struct {
	matches []llm.PivotMatch
	err     error
	calls   int
	gotGaps int
}

func (f *fakePivotSource) MatchPivots(ctx context.Context, profile types.ResearchProfile, assessment types.NoveltyAssessment, gaps []types.GapEntry) ([]llm.PivotMatch, error) {
	f.calls++
	f.gotGaps = len(gaps)
	return f.matches, f.err
}

func pivotCandidates(n int) []types.GapEntry {
	entries := make([]types.GapEntry, n)
	for i := range entries {
		entries[i] = gapEntry(fmt.Sprintf("candidate-%d", i), "", "", "")
	}
	return entries
}

func testAssessment() types.NoveltyAssessment {
	return types.NoveltyAssessment{Verdict: types.VerdictSolved, Score: 0.2}
}

func TestMatchRanksByComposite(t *testing.T) {
	candidates := pivotCandidates(4)
	source := &fakePivotSource{matches: []llm.PivotMatch{
		{GapIndex: 0, RelevanceScore: 0.9, ImpactPotential: "LOW"},       // 0.9
		{GapIndex: 1, RelevanceScore: 0.5, ImpactPotential: "HIGH"},      // 1.5
		{GapIndex: 2, RelevanceScore: 0.6, ImpactPotential: "MEDIUM"},    // 1.2
		{GapIndex: 3, RelevanceScore: 0.8, ImpactPotential: "UNCERTAIN"}, // 1.2, after the earlier tie
	}}

	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), candidates, 0)
	want := []string{
		candidates[1].SourceURL,
		candidates[2].SourceURL,
		candidates[3].SourceURL,
		candidates[0].SourceURL,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d suggestions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Gap.SourceURL != want[i] {
			t.Errorf("rank %d = %s, want %s", i, got[i].Gap.SourceURL, want[i])
		}
	}
	if source.gotGaps != 4 {
		t.Errorf("source saw %d candidates, want 4", source.gotGaps)
	}
}

func TestMatchDropsOutOfRangeIndexes(t *testing.T) {
	candidates := pivotCandidates(2)
	source := &fakePivotSource{matches: []llm.PivotMatch{
		{GapIndex: 5, RelevanceScore: 0.9, ImpactPotential: "HIGH"},
		{GapIndex: -1, RelevanceScore: 0.9, ImpactPotential: "HIGH"},
		{GapIndex: 1, RelevanceScore: 0.4, ImpactPotential: "MEDIUM"},
	}}

	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), candidates, 0)
	if len(got) != 1 || got[0].Gap.SourceURL != candidates[1].SourceURL {
		t.Errorf("got %d suggestions, want only the in-range match", len(got))
	}
}

func TestMatchClampsRelevance(t *testing.T) {
	candidates := pivotCandidates(2)
	source := &fakePivotSource{matches: []llm.PivotMatch{
		{GapIndex: 0, RelevanceScore: 1.7, ImpactPotential: "HIGH"},
		{GapIndex: 1, RelevanceScore: -0.2, ImpactPotential: "HIGH"},
	}}

	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), candidates, 0)
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
	if got[0].RelevanceScore != 1.0 {
		t.Errorf("overflowing relevance = %v, want clamped to 1.0", got[0].RelevanceScore)
	}
	if got[1].RelevanceScore != 0 {
		t.Errorf("negative relevance = %v, want clamped to 0", got[1].RelevanceScore)
	}
}

func TestMatchNormalizesImpact(t *testing.T) {
	tests := []struct {
		raw  string
		want types.ImpactLevel
	}{
		{" high ", types.ImpactHigh},
		{"low", types.ImpactLow},
		{"uncertain", types.ImpactUncertain},
		{"MEDIUM", types.ImpactMedium},
		{"massive", types.ImpactMedium},
		{"", types.ImpactMedium},
	}
	for _, tt := range tests {
		if got := normalizeImpact(tt.raw); got != tt.want {
			t.Errorf("normalizeImpact(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestMatchDefaultTopN(t *testing.T) {
	candidates := pivotCandidates(7)
	matches := make([]llm.PivotMatch, 7)
	for i := range matches {
		matches[i] = llm.PivotMatch{GapIndex: i, RelevanceScore: 0.5, ImpactPotential: "MEDIUM"}
	}
	source := &fakePivotSource{matches: matches}

	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), candidates, 0)
	if len(got) != defaultTopSuggestions {
		t.Errorf("got %d suggestions, want the default %d", len(got), defaultTopSuggestions)
	}
}

func TestMatchEmptyCandidates(t *testing.T) {
	source := &fakePivotSource{}
	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), nil, 0)
	if got != nil {
		t.Errorf("got %d suggestions for no candidates, want none", len(got))
	}
	if source.calls != 0 {
		t.Errorf("source called %d times for no candidates, want 0", source.calls)
	}
}

func TestMatchSourceError(t *testing.T) {
	source := &fakePivotSource{err: errors.New("context deadline exceeded")}
	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), pivotCandidates(2), 0)
	if got != nil {
		t.Errorf("got %d suggestions from a failing source, want none", len(got))
	}
}

func TestMatchCarriesReasoning(t *testing.T) {
	candidates := pivotCandidates(1)
	source := &fakePivotSource{matches: []llm.PivotMatch{{
		GapIndex:        0,
		RelevanceScore:  0.7,
		ImpactPotential: "HIGH",
		MatchReasoning:  "Signal analysis transfers directly.",
		Feasibility:     "Start from existing recordings.",
		ImpactRationale: "A crowded field versus an open one.",
	}}}

	got := NewMatcher(source, nil).Match(context.Background(), birdsongProfile(), testAssessment(), candidates, 0)
	if len(got) != 1 {
		t.Fatalf("got %d suggestions, want 1", len(got))
	}
	s := got[0]
	if s.MatchReasoning == "" || s.Feasibility == "" || s.ImpactRationale == "" {
		t.Errorf("suggestion dropped reasoning fields: %+v", s)
	}
	if s.ImpactPotential != types.ImpactHigh {
		t.Errorf("impact = %s, want HIGH", s.ImpactPotential)
	}
}
