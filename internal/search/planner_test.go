// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/research-advisor/pkg/types"
)

func TestBuildQueryVariants(t *testing.T) {
	broad := types.DefaultBroadTerms()
	vocab := types.DefaultTopicVocabulary()

	tests := []struct {
		name     string
		question string
		dec      types.ResearchDecomposition
		want     []string
	}{
		{
			name:     "full decomposition",
			question: "Does song divergence drive reproductive isolation in Amazonian antbird hybrid zones today",
			dec: types.ResearchDecomposition{
				CoreQuestions: []string{
					"Can vocal learning differences maintain reproductive barriers between antbird populations across contact zones",
				},
				KeyConcepts: []string{"Thamnophilidae", "song divergence", "hybrid zone", "speciation", "ab"},
			},
			want: []string{
				// Niche: three specific concepts plus the topic anchor,
				// capped at four tokens.
				"Thamnophilidae song divergence hybrid",
				"Thamnophilidae song divergence hybrid zone speciation",
				"Can vocal learning differences maintain reproductive barriers between antbird populations",
				"Does song divergence drive reproductive isolation in Amazonian",
				"Thamnophilidae song divergence hybrid zone",
			},
		},
		{
			name:     "short question with no decomposition",
			question: "antbird hybrid zones",
			dec:      types.ResearchDecomposition{},
			want:     []string{"antbird hybrid zones"},
		},
		{
			name:     "duplicate variants collapse",
			question: "hybrid zone",
			dec: types.ResearchDecomposition{
				KeyConcepts: []string{"hybrid zone", "xx"},
			},
			want: []string{"hybrid zone"},
		},
		{
			name:     "stoplisted concept still anchors the niche query",
			question: "why do Sulawesi macaques decline",
			dec: types.ResearchDecomposition{
				KeyConcepts: []string{"Sulawesi macaques", "ecology"},
			},
			want: []string{
				"Sulawesi macaques ecology",
				"why do Sulawesi macaques decline",
			},
		},
		{
			name:     "anchor already inside the phrase is not repeated",
			question: "beak shape change in Darwin finches",
			dec: types.ResearchDecomposition{
				KeyConcepts: []string{"Darwin finches", "beak evolution"},
			},
			want: []string{
				"Darwin finches beak evolution",
				"beak shape change in Darwin finches",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQueryVariants(tt.question, tt.dec, broad, vocab)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("buildQueryVariants() mismatch (-want +got):\n%s", diff)
			}
			if len(got) > maxQueryVariants {
				t.Errorf("len(variants) = %d, want <= %d", len(got), maxQueryVariants)
			}
		})
	}
}

func TestBuildQueryVariantsFallsBackToQuestion(t *testing.T) {
	got := buildQueryVariants("   ", types.ResearchDecomposition{}, nil, nil)
	if len(got) != 1 || got[0] != "" {
		t.Errorf("variants = %q, want single trimmed question", got)
	}
}

func TestNicheQueryRequiresSpecificConcepts(t *testing.T) {
	broad := types.DefaultBroadTerms()
	// All concepts stoplisted and lower-case: nothing to build from.
	if got := nicheQuery([]string{"ecology", "evolution"}, broad, nil); got != "" {
		t.Errorf("nicheQuery = %q, want empty", got)
	}
}

func TestIsSpecificConcept(t *testing.T) {
	broad := types.DefaultBroadTerms()
	tests := []struct {
		concept string
		want    bool
	}{
		{"Thamnophilidae", true},       // capitalized
		{"Ecology", true},              // capitalization wins over the stoplist
		{"ecology", false},             // stoplisted
		{"song divergence", true},      // specific lower-case phrase
		{"ab", false},                  // too short
		{"speciation", false},          // stoplisted
		{"hybrid zone dynamics", true}, // multiword phrases are not stoplist members
	}
	for _, tt := range tests {
		if got := isSpecificConcept(tt.concept, broad); got != tt.want {
			t.Errorf("isSpecificConcept(%q) = %v, want %v", tt.concept, got, tt.want)
		}
	}
}

func TestShortenQuery(t *testing.T) {
	tests := []struct {
		q        string
		maxWords int
		want     string
	}{
		{"one two three four", 8, "one two three four"},
		{"one two three four", 2, "one two"},
		{"  padded   question  ", 8, "padded   question"},
		{"", 8, ""},
	}
	for _, tt := range tests {
		if got := shortenQuery(tt.q, tt.maxWords); got != tt.want {
			t.Errorf("shortenQuery(%q, %d) = %q, want %q", tt.q, tt.maxWords, got, tt.want)
		}
	}
}

func TestUsableConcepts(t *testing.T) {
	got := usableConcepts([]string{" Thamnophilidae ", "ab", "", "song divergence"})
	want := []string{"Thamnophilidae", "song divergence"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("usableConcepts mismatch (-want +got):\n%s", diff)
	}
}
