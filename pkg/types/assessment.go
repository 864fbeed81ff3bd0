// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Verdict is the novelty judgment for a research question.
type Verdict string

const (
	VerdictSolved    Verdict = "SOLVED"
	VerdictMarginal  Verdict = "MARGINAL"
	VerdictNovel     Verdict = "NOVEL"
	VerdictUncertain Verdict = "UNCERTAIN"
)

// ImpactLevel buckets an impact judgment.
type ImpactLevel string

const (
	ImpactHigh      ImpactLevel = "HIGH"
	ImpactMedium    ImpactLevel = "MEDIUM"
	ImpactLow       ImpactLevel = "LOW"
	ImpactUncertain ImpactLevel = "UNCERTAIN"
)

// Recommendation is the final advice derived from an assessment.
type Recommendation string

const (
	RecommendContinue  Recommendation = "CONTINUE"
	RecommendPivot     Recommendation = "PIVOT"
	RecommendUncertain Recommendation = "UNCERTAIN"
)

// ResearchDecomposition is the structured breakdown of a research question
// produced by the reasoning service. Read-only input to query planning and
// reranking.
type ResearchDecomposition struct {
	// CoreQuestions holds 1-3 fundamental questions the research aims to answer.
	CoreQuestions []string `json:"core_questions" yaml:"core_questions"`

	// CoreMotivations describes what drives the research.
	CoreMotivations []string `json:"core_motivations,omitempty" yaml:"core_motivations,omitempty"`

	// PotentialImpactDomains names who or what benefits if the research succeeds.
	PotentialImpactDomains []string `json:"potential_impact_domains,omitempty" yaml:"potential_impact_domains,omitempty"`

	// KeyConcepts holds specific search terms: genus names, model names,
	// exact techniques. Feeds the query planner and the local reranker.
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`
}

// ResearcherClassification is the researcher's inferred position in the
// topic taxonomy, derived once per assessment by weighted voting over the
// retrieved papers. Empty strings mean the axis could not be determined.
type ResearcherClassification struct {
	PrimaryDomain   string `json:"primary_domain,omitempty" yaml:"primary_domain,omitempty"`
	PrimaryField    string `json:"primary_field,omitempty" yaml:"primary_field,omitempty"`
	PrimarySubfield string `json:"primary_subfield,omitempty" yaml:"primary_subfield,omitempty"`
	PrimaryTopic    string `json:"primary_topic,omitempty" yaml:"primary_topic,omitempty"`

	// SecondaryTopics holds up to 5 further topics by descending vote weight.
	SecondaryTopics []string `json:"secondary_topics,omitempty" yaml:"secondary_topics,omitempty"`

	// TopicDiversity is distinct-subfields / papers-with-topic-data, in
	// [0,1]; nil when no retrieved paper carried topic annotations.
	TopicDiversity *float64 `json:"topic_diversity,omitempty" yaml:"topic_diversity,omitempty"`
}

// Empty reports whether no axis of the classification was determined.
func (c ResearcherClassification) Empty() bool {
	return c.PrimaryDomain == "" && c.PrimaryField == "" &&
		c.PrimarySubfield == "" && c.PrimaryTopic == ""
}

// ProximityTier describes how close a piece of evidence sits to the
// researcher's inferred specialty.
type ProximityTier string

const (
	TierSameTopic    ProximityTier = "same_topic"
	TierSameSubfield ProximityTier = "same_subfield"
	TierSameField    ProximityTier = "same_field"
	TierCrossField   ProximityTier = "cross_field"
)

// ProximityTierOrder lists tiers from closest to farthest. Partitioning
// assigns each paper to the first tier that matches.
var ProximityTierOrder = []ProximityTier{
	TierSameTopic, TierSameSubfield, TierSameField, TierCrossField,
}

// TierEvidence is one proximity tier of the partitioned evidence set with
// its own impact statistics, so downstream reasoning can weight direct
// competition differently from tangential awareness.
type TierEvidence struct {
	Tier   ProximityTier `json:"tier" yaml:"tier"`
	Papers []Paper       `json:"papers" yaml:"papers"`
	Stats  FWCIStats     `json:"stats" yaml:"stats"`
}

// NoveltyAssessment is the complete result of assessing one research
// question: verdict, evidence, impact judgments, and the derived
// classification. It is the terminal value of the pipeline; retrieval or
// reasoning failures degrade to an UNCERTAIN assessment, never an error.
type NoveltyAssessment struct {
	// ID uniquely identifies this assessment run.
	ID string `json:"id" yaml:"id"`

	// Score is the novelty score in [0,1]; higher means more novel.
	Score float64 `json:"score" yaml:"score"`

	// Verdict is the novelty judgment.
	Verdict Verdict `json:"verdict" yaml:"verdict"`

	// Evidence is the bounded citation list backing the verdict.
	Evidence []Citation `json:"evidence" yaml:"evidence"`

	// Reasoning explains the verdict.
	Reasoning string `json:"reasoning" yaml:"reasoning"`

	// RelatedPapersCount is the size of the merged, reranked paper set.
	RelatedPapersCount int `json:"related_papers_count" yaml:"related_papers_count"`

	// MedianFWCI through CitationPercentileMax restate the evidence
	// statistics for the full paper set.
	MedianFWCI            *float64 `json:"median_fwci,omitempty" yaml:"median_fwci,omitempty"`
	FWCIPercentile        *float64 `json:"fwci_percentile,omitempty" yaml:"fwci_percentile,omitempty"`
	CitationPercentileMin *float64 `json:"citation_percentile_min,omitempty" yaml:"citation_percentile_min,omitempty"`
	CitationPercentileMax *float64 `json:"citation_percentile_max,omitempty" yaml:"citation_percentile_max,omitempty"`

	// ImpactAssessment judges current field activity around the question.
	ImpactAssessment ImpactLevel `json:"impact_assessment" yaml:"impact_assessment"`
	ImpactReasoning  string      `json:"impact_reasoning,omitempty" yaml:"impact_reasoning,omitempty"`

	// ExpectedImpact predicts the impact of the researcher's work if completed.
	ExpectedImpact          ImpactLevel `json:"expected_impact" yaml:"expected_impact"`
	ExpectedImpactReasoning string      `json:"expected_impact_reasoning,omitempty" yaml:"expected_impact_reasoning,omitempty"`

	// RealWorldImpact judges non-academic consequences under deliberately
	// harsh criteria.
	RealWorldImpact          ImpactLevel `json:"real_world_impact" yaml:"real_world_impact"`
	RealWorldImpactReasoning string      `json:"real_world_impact_reasoning,omitempty" yaml:"real_world_impact_reasoning,omitempty"`

	// Decomposition is the structured breakdown the retrieval ran against.
	Decomposition *ResearchDecomposition `json:"research_decomposition,omitempty" yaml:"research_decomposition,omitempty"`

	// Classification is the researcher's derived taxonomy position.
	Classification *ResearcherClassification `json:"researcher_classification,omitempty" yaml:"researcher_classification,omitempty"`

	// Tiers is the evidence partitioned by proximity to that position,
	// attached only alongside a classification.
	Tiers []TierEvidence `json:"evidence_tiers,omitempty" yaml:"evidence_tiers,omitempty"`
}
