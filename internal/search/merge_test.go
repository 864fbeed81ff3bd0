// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/pdiddy/research-advisor/pkg/types"
)

func paper(id string, relevance float64) types.Paper {
	p := types.Paper{ID: id, Title: "paper " + id}
	if relevance > 0 {
		p.RelevanceScore = &relevance
	}
	return p
}

func ids(papers []types.Paper) []string {
	out := make([]string, len(papers))
	for i, p := range papers {
		out[i] = p.ID
	}
	return out
}

func assertIDs(t *testing.T, papers []types.Paper, want ...string) {
	t.Helper()
	got := ids(papers)
	if len(got) != len(want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ids = %v, want %v", got, want)
		}
	}
}

// --- mergePair ---

func TestMergePairOrderAndDedup(t *testing.T) {
	semantic := []types.Paper{paper("W1", 0), paper("W2", 0)}
	keyword := []types.Paper{paper("W2", 0), paper("W3", 0), paper("W4", 0)}

	merged := mergePair(semantic, keyword, types.RetrievalSemantic, types.RetrievalKeyword, 10)
	assertIDs(t, merged, "W1", "W2", "W3", "W4")

	if merged[0].RetrievalSource != types.RetrievalSemantic {
		t.Errorf("W1 source = %q, want semantic", merged[0].RetrievalSource)
	}
	if merged[1].RetrievalSource != types.RetrievalSemantic {
		t.Errorf("W2 source = %q, want semantic (first list wins)", merged[1].RetrievalSource)
	}
	if merged[2].RetrievalSource != types.RetrievalKeyword {
		t.Errorf("W3 source = %q, want keyword", merged[2].RetrievalSource)
	}
}

func TestMergePairStopsAtLimit(t *testing.T) {
	first := []types.Paper{paper("W1", 0), paper("W2", 0)}
	second := []types.Paper{paper("W3", 0), paper("W4", 0)}

	merged := mergePair(first, second, types.RetrievalKeyword, types.RetrievalKeyword, 3)
	assertIDs(t, merged, "W1", "W2", "W3")
}

func TestMergePairKeepsExistingSource(t *testing.T) {
	tagged := paper("W1", 0)
	tagged.RetrievalSource = types.RetrievalSemantic

	merged := mergePair([]types.Paper{tagged}, nil, types.RetrievalKeyword, types.RetrievalKeyword, 10)
	if merged[0].RetrievalSource != types.RetrievalSemantic {
		t.Errorf("source = %q, want preserved semantic tag", merged[0].RetrievalSource)
	}
}

func TestMergePairDedupsWithinList(t *testing.T) {
	first := []types.Paper{paper("W1", 0), paper("W1", 0), paper("W2", 0)}
	merged := mergePair(first, nil, types.RetrievalKeyword, types.RetrievalKeyword, 10)
	assertIDs(t, merged, "W1", "W2")
}

func TestMergePairSelfMergeIsIdempotent(t *testing.T) {
	list := []types.Paper{paper("W1", 0), paper("W2", 0)}
	merged := mergePair(list, list, types.RetrievalKeyword, types.RetrievalKeyword, 10)
	assertIDs(t, merged, "W1", "W2")
}

func TestMergePairEmptyInputs(t *testing.T) {
	if merged := mergePair(nil, nil, types.RetrievalSemantic, types.RetrievalKeyword, 5); len(merged) != 0 {
		t.Errorf("merged = %v, want empty", merged)
	}
}

// --- mergeRanked ---

func TestMergeRankedPrefersVariantCount(t *testing.T) {
	// W2 appears in three variants with low relevance, W1 in one with high.
	lists := [][]types.Paper{
		{paper("W1", 95.0), paper("W2", 10.0)},
		{paper("W2", 12.0)},
		{paper("W2", 11.0), paper("W3", 50.0)},
	}

	merged := mergeRanked(lists, 10)
	assertIDs(t, merged, "W2", "W1", "W3")

	// The kept entry carries the maximum relevance seen across variants.
	if merged[0].RelevanceScore == nil || *merged[0].RelevanceScore != 12.0 {
		t.Errorf("W2 relevance = %v, want max 12.0", merged[0].RelevanceScore)
	}
}

func TestMergeRankedKeepsMaxRelevanceAcrossLists(t *testing.T) {
	lists := [][]types.Paper{
		{paper("W1", 0.5), paper("W2", 0)},
		{paper("W1", 0.6), paper("W3", 0)},
	}

	merged := mergeRanked(lists, 5)
	assertIDs(t, merged, "W1", "W2", "W3")
	if merged[0].RelevanceScore == nil || *merged[0].RelevanceScore != 0.6 {
		t.Errorf("W1 relevance = %v, want 0.6", merged[0].RelevanceScore)
	}
}

func TestMergeRankedTiesBreakOnRelevanceThenOrder(t *testing.T) {
	lists := [][]types.Paper{
		{paper("W1", 10.0), paper("W2", 30.0), paper("W3", 0)},
	}

	merged := mergeRanked(lists, 10)
	// Same hit count: relevance decides; W3 has none and ranks last.
	assertIDs(t, merged, "W2", "W1", "W3")

	// Full tie keeps first-seen order.
	tied := [][]types.Paper{
		{paper("W5", 0), paper("W4", 0)},
	}
	merged = mergeRanked(tied, 10)
	assertIDs(t, merged, "W5", "W4")
}

func TestMergeRankedTruncatesToLimit(t *testing.T) {
	lists := [][]types.Paper{
		{paper("W1", 3.0), paper("W2", 2.0), paper("W3", 1.0)},
	}
	merged := mergeRanked(lists, 2)
	assertIDs(t, merged, "W1", "W2")
}

func TestMergeRankedEmpty(t *testing.T) {
	if merged := mergeRanked(nil, 5); len(merged) != 0 {
		t.Errorf("merged = %v, want empty", merged)
	}
	if merged := mergeRanked([][]types.Paper{nil, {}}, 5); len(merged) != 0 {
		t.Errorf("merged = %v, want empty", merged)
	}
}
