// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// GapEntry is a cataloged unsolved research problem. Entries are owned by
// the gap store; assessments only read them. Identity for deduplication is
// SourceURL.
type GapEntry struct {
	// ID is the store's row identifier; zero before the entry is persisted.
	ID int64 `json:"id,omitempty" yaml:"id,omitempty"`

	// Title is the short name of the open problem.
	Title string `json:"title" yaml:"title"`

	// Description elaborates the problem.
	Description string `json:"description" yaml:"description"`

	// Source names the catalog the entry came from
	// (e.g. "convergent", "homeworld", "wikenigma", "3ie", "encyclopedia").
	Source string `json:"source" yaml:"source"`

	// SourceURL is the canonical URL of the entry in its catalog.
	// The identity key: upserts match on it.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Category is the catalog's own grouping label, when present.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Tags holds the catalog's topic tags.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Topic, Subfield, Field, and Domain are the entry's taxonomy
	// assignment, filled in by the enrichment task. Empty until enriched.
	Topic    string `json:"topic,omitempty" yaml:"topic,omitempty"`
	Subfield string `json:"subfield,omitempty" yaml:"subfield,omitempty"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Embedding is the entry's vector, filled in by the embedding backfill.
	// Nil until embedded; cleared again when the entry's content changes.
	Embedding []float32 `json:"-" yaml:"-"`

	// ScrapedAt is when the entry was last imported; CreatedAt when it was
	// first seen.
	ScrapedAt time.Time `json:"scraped_at,omitempty" yaml:"scraped_at,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// PivotSuggestion pairs a gap entry with the match analysis for one
// researcher, ranked by relevance times impact weight.
type PivotSuggestion struct {
	// Gap is the suggested problem.
	Gap GapEntry `json:"gap_entry" yaml:"gap_entry"`

	// RelevanceScore is how well the researcher's skills match, in [0,1].
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// ImpactPotential is the judged impact of solving this gap.
	ImpactPotential ImpactLevel `json:"impact_potential" yaml:"impact_potential"`

	// MatchReasoning explains the skill match and pivot distance.
	MatchReasoning string `json:"match_reasoning,omitempty" yaml:"match_reasoning,omitempty"`

	// Feasibility gives concrete guidance on applying the researcher's
	// skills to this gap.
	Feasibility string `json:"feasibility_for_researcher,omitempty" yaml:"feasibility_for_researcher,omitempty"`

	// ImpactRationale argues why this gap is a better use of the
	// researcher's skills than their current direction.
	ImpactRationale string `json:"impact_rationale,omitempty" yaml:"impact_rationale,omitempty"`
}
