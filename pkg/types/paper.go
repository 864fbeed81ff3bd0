// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// RetrievalSource tags how a paper entered the result set. Attached during
// merge, never by the search client itself.
type RetrievalSource string

const (
	RetrievalKeyword  RetrievalSource = "keyword"
	RetrievalSemantic RetrievalSource = "semantic"
)

// WeightedTerm is a concept or keyword annotation with its confidence score.
type WeightedTerm struct {
	// Name is the display name of the concept or keyword.
	Name string `json:"name" yaml:"name"`

	// Score is the annotation confidence reported by the source.
	Score float64 `json:"score" yaml:"score"`
}

// TopicTaxonomy locates a paper (or gap entry) in the four-level
// domain > field > subfield > topic hierarchy.
type TopicTaxonomy struct {
	// Topic is the most specific level (e.g. "Avian Speciation Genomics").
	Topic string `json:"topic" yaml:"topic"`

	// TopicID is the source identifier for the topic, when known.
	TopicID string `json:"topic_id,omitempty" yaml:"topic_id,omitempty"`

	// Subfield, Field, and Domain are the coarser levels, most specific first.
	Subfield string `json:"subfield,omitempty" yaml:"subfield,omitempty"`
	Field    string `json:"field,omitempty" yaml:"field,omitempty"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Score is the classifier confidence for this assignment; nil when the
	// source did not report one.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

// Paper is a literature search hit reduced to a fixed schema.
// It is constructed once at normalization time and treated as a value:
// the only fields set after construction are RetrievalSource (during
// merge) and the reranker's BM25Score.
type Paper struct {
	// ID is the canonical identifier from the search service. Paper identity
	// for all merging and deduplication.
	ID string `json:"id" yaml:"id"`

	// Title is the work title.
	Title string `json:"title" yaml:"title"`

	// Abstract is the full abstract, decoded from the service's
	// token-position inverted index. Empty when the work has none.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the bare DOI (no resolver prefix); empty when unknown.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// FWCI is the field-and-year-normalized citation impact score;
	// nil when the service has not computed one for this work.
	FWCI *float64 `json:"fwci,omitempty" yaml:"fwci,omitempty"`

	// CitationNormalizedPercentile is the averaged normalized citation
	// percentile for the work.
	CitationNormalizedPercentile *float64 `json:"citation_normalized_percentile,omitempty" yaml:"citation_normalized_percentile,omitempty"`

	// CitedByPercentileYearMin and Max bound the work's yearly citation
	// percentile band.
	CitedByPercentileYearMin *float64 `json:"cited_by_percentile_year_min,omitempty" yaml:"cited_by_percentile_year_min,omitempty"`
	CitedByPercentileYearMax *float64 `json:"cited_by_percentile_year_max,omitempty" yaml:"cited_by_percentile_year_max,omitempty"`

	// CitedByCount is the raw citation count.
	CitedByCount int `json:"cited_by_count" yaml:"cited_by_count"`

	// Concepts holds up to 5 weighted concept annotations.
	Concepts []WeightedTerm `json:"concepts,omitempty" yaml:"concepts,omitempty"`

	// Keywords holds up to 5 weighted keyword annotations.
	Keywords []WeightedTerm `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// PrimaryTopic is the work's primary taxonomy assignment, when present.
	PrimaryTopic *TopicTaxonomy `json:"primary_topic,omitempty" yaml:"primary_topic,omitempty"`

	// Topics holds up to 3 secondary taxonomy assignments.
	Topics []TopicTaxonomy `json:"topics,omitempty" yaml:"topics,omitempty"`

	// RelevanceScore is the search service's relevance for the query that
	// returned this work; nil for modes that report none.
	RelevanceScore *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`

	// RetrievalSource records which retrieval mode first produced the paper.
	// Set during merge.
	RetrievalSource RetrievalSource `json:"retrieval_source,omitempty" yaml:"retrieval_source,omitempty"`

	// BM25Score is the local rerank score. Set by the reranker; nil before.
	BM25Score *float64 `json:"bm25_score,omitempty" yaml:"bm25_score,omitempty"`
}

// FWCIStats aggregates impact metrics over a paper set. The headline
// statistic is the median, not the mean, so a handful of tangential
// highly-cited works cannot inflate it.
type FWCIStats struct {
	// MedianFWCI is the median impact score across papers that have one;
	// nil when none do.
	MedianFWCI *float64 `json:"median_fwci" yaml:"median_fwci"`

	// FWCIPercentile is the mean of the normalized citation percentiles.
	FWCIPercentile *float64 `json:"fwci_percentile" yaml:"fwci_percentile"`

	// PapersWithFWCI counts papers carrying an impact score.
	PapersWithFWCI int `json:"papers_with_fwci" yaml:"papers_with_fwci"`

	// CitationPercentileMin is the minimum of per-paper yearly percentile
	// minima; CitationPercentileMax the maximum of the maxima.
	CitationPercentileMin *float64 `json:"citation_percentile_min" yaml:"citation_percentile_min"`
	CitationPercentileMax *float64 `json:"citation_percentile_max" yaml:"citation_percentile_max"`
}

// Citation is one piece of evidence attached to an assessment.
type Citation struct {
	// Title is the cited work's title.
	Title string `json:"title" yaml:"title"`

	// Authors lists author names in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// Year is the publication year; nil when unknown.
	Year *int `json:"year,omitempty" yaml:"year,omitempty"`

	// DOI is the bare DOI; URL is its resolver form when the DOI is known.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// FWCI carries the work's impact score through to the report.
	FWCI *float64 `json:"fwci,omitempty" yaml:"fwci,omitempty"`
}
