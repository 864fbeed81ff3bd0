// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package novelty turns retrieved evidence into a novelty assessment:
// taxonomy classification, proximity partitioning, impact statistics, and
// the reasoning-service judgments, orchestrated by the Assessor. Evidence
// absence and reasoning failures degrade field by field to UNCERTAIN; the
// pipeline never fails an assessment for lack of literature.
package novelty

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// PaperRetriever runs literature retrieval for a decomposed question.
// Retrieval failures surface as an empty result, never an error.
type PaperRetriever interface {
	Retrieve(ctx context.Context, question string, dec types.ResearchDecomposition) []types.Paper
}

// Reasoner is the reasoning-service surface the pipeline consumes.
type Reasoner interface {
	Decompose(ctx context.Context, question string, profile types.ResearchProfile) types.ResearchDecomposition
	Verdict(ctx context.Context, in llm.VerdictInput) (llm.VerdictResult, error)
	Impact(ctx context.Context, in llm.ImpactInput) (types.ImpactLevel, string, error)
	ExpectedImpact(ctx context.Context, in llm.ImpactInput) (types.ImpactLevel, string)
	RealWorldImpact(ctx context.Context, in llm.ImpactInput) (types.ImpactLevel, string)
}

// Assessor runs the assessment pipeline for one question at a time. It
// holds no per-assessment state, so one Assessor serves any number of
// sequential assessments.
type Assessor struct {
	retriever PaperRetriever
	reasoner  Reasoner
	cfg       types.NoveltyConfig
	log       *zap.Logger
}

// NewAssessor wires the pipeline. A nil logger disables logging.
func NewAssessor(retriever PaperRetriever, reasoner Reasoner, cfg types.NoveltyConfig, log *zap.Logger) *Assessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assessor{retriever: retriever, reasoner: reasoner, cfg: cfg, log: log}
}

// Assess decomposes the question, retrieves and ranks evidence, derives
// the researcher's taxonomy position, and asks the reasoning service for
// the verdict and the three impact judgments. The expected and real-world
// impact calls run concurrently; they are independent prompts.
func (a *Assessor) Assess(ctx context.Context, question string, profile types.ResearchProfile) types.NoveltyAssessment {
	dec := a.reasoner.Decompose(ctx, question, profile)

	papers := a.retriever.Retrieve(ctx, question, dec)
	if len(papers) == 0 {
		a.log.Warn("no evidence retrieved", zap.String("question", question))
		return uncertainAssessment(dec)
	}
	a.log.Info("evidence retrieved", zap.Int("papers", len(papers)))

	stats := Stats(papers)
	classification := Classify(papers)
	tiers := Partition(papers, classification)
	citations := SelectCitations(papers)

	verdict, err := a.reasoner.Verdict(ctx, llm.VerdictInput{
		Question:       question,
		Decomposition:  dec,
		Papers:         papers,
		Stats:          stats,
		Classification: classification,
		Tiers:          tiers,
	})
	if err != nil {
		a.log.Warn("verdict unavailable, falling back to bibliometrics", zap.Error(err))
		verdict = bibliometricVerdict(stats)
	}

	impactIn := llm.ImpactInput{
		Question:      question,
		Decomposition: dec,
		Papers:        papers,
		Stats:         stats,
		Verdict:       verdict.Verdict,
	}
	impact, impactReasoning, err := a.reasoner.Impact(ctx, impactIn)
	if err != nil {
		a.log.Warn("impact judgment unavailable, using citation thresholds", zap.Error(err))
		impact = ImpactLevelFor(stats.MedianFWCI, a.cfg)
		impactReasoning = fmt.Sprintf(
			"Derived from citation metrics alone: median FWCI %s places current activity around this question at %s.",
			formatMedian(stats.MedianFWCI), impact)
	}

	var (
		expected, realWorld                   types.ImpactLevel
		expectedReasoning, realWorldReasoning string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expected, expectedReasoning = a.reasoner.ExpectedImpact(gctx, impactIn)
		return nil
	})
	g.Go(func() error {
		realWorld, realWorldReasoning = a.reasoner.RealWorldImpact(gctx, impactIn)
		return nil
	})
	// Both goroutines degrade internally instead of returning errors.
	_ = g.Wait()

	assessment := types.NoveltyAssessment{
		ID:                 uuid.NewString(),
		Score:              verdict.Score,
		Verdict:            verdict.Verdict,
		Evidence:           citations,
		Reasoning:          verdict.Reasoning,
		RelatedPapersCount: len(papers),

		MedianFWCI:            stats.MedianFWCI,
		FWCIPercentile:        stats.FWCIPercentile,
		CitationPercentileMin: stats.CitationPercentileMin,
		CitationPercentileMax: stats.CitationPercentileMax,

		ImpactAssessment: impact,
		ImpactReasoning:  impactReasoning,

		ExpectedImpact:          expected,
		ExpectedImpactReasoning: expectedReasoning,

		RealWorldImpact:          realWorld,
		RealWorldImpactReasoning: realWorldReasoning,

		Decomposition: &dec,
	}
	if !classification.Empty() {
		assessment.Classification = &classification
		assessment.Tiers = tiers
	}
	return assessment
}

// uncertainAssessment is the terminal result when retrieval produced no
// evidence at all.
func uncertainAssessment(dec types.ResearchDecomposition) types.NoveltyAssessment {
	return types.NoveltyAssessment{
		ID:      uuid.NewString(),
		Score:   0.5,
		Verdict: types.VerdictUncertain,
		Reasoning: "No published evidence was retrieved for this question, " +
			"so its novelty could not be judged against the literature.",

		ImpactAssessment: types.ImpactUncertain,
		ImpactReasoning:  "Without retrieved evidence there is no citation signal to judge current activity.",

		ExpectedImpact:          types.ImpactUncertain,
		ExpectedImpactReasoning: "Expected impact cannot be predicted without evidence of the surrounding field.",

		RealWorldImpact:          types.ImpactUncertain,
		RealWorldImpactReasoning: "Real-world impact cannot be judged without evidence of the surrounding field.",

		Decomposition: &dec,
	}
}

// bibliometricVerdict stands in when the reasoning service fails: the
// verdict and score stay neutral and the reasoning reports the citation
// picture we do have.
func bibliometricVerdict(stats types.FWCIStats) llm.VerdictResult {
	return llm.VerdictResult{
		Verdict: types.VerdictUncertain,
		Score:   0.5,
		Reasoning: fmt.Sprintf(
			"The reasoning service was unavailable; bibliometrics only: median FWCI %s across %d scored papers.",
			formatMedian(stats.MedianFWCI), stats.PapersWithFWCI),
	}
}

func formatMedian(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
