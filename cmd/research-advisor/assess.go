// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/embed"
	"github.com/pdiddy/research-advisor/internal/gaps"
	"github.com/pdiddy/research-advisor/internal/gapstore"
	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/internal/novelty"
	"github.com/pdiddy/research-advisor/internal/report"
	"github.com/pdiddy/research-advisor/internal/search"
	"github.com/pdiddy/research-advisor/pkg/types"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess the novelty of a research question",
	Long: `Assess retrieves published evidence for a research question, weighs
citation impact, asks the reasoning service for a verdict, and prints the
assessment with a continue-or-pivot recommendation.

Profile flags sharpen the evidence retrieval and, with --pivots, the
match against the open-problem catalog.`,
	RunE: runAssess,
}

func runAssess(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("a research question is required: pass --question")
	}
	profile := profileFromFlags(cmd)
	profile.ResearchQuestion = question

	cfg := advisorConfig()
	ctx := context.Background()

	searchClient := search.NewClient(cfg.Search, logger)
	embedClient := embed.NewClient(cfg.Embedding, logger)
	reasoner := llm.NewClient(cfg.AI, logger)
	retriever := search.NewRetriever(searchClient, embedClient, cfg.Search, logger)
	assessor := novelty.NewAssessor(retriever, reasoner, cfg.Novelty, logger)

	assessment := assessor.Assess(ctx, question, profile)
	advice := report.Recommend(assessment)

	var suggestions []types.PivotSuggestion
	wantPivots, _ := cmd.Flags().GetBool("pivots")
	if wantPivots {
		suggestions = pivotSuggestions(ctx, cfg, embedClient, reasoner, profile, assessment)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		out := struct {
			Assessment types.NoveltyAssessment `json:"assessment"`
			Advice     report.Advice           `json:"advice"`
			Pivots     []types.PivotSuggestion `json:"pivots,omitempty"`
		}{assessment, advice, suggestions}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		report.WriteAssessment(os.Stdout, assessment, advice)
		if wantPivots {
			fmt.Fprintln(os.Stdout)
			report.WritePivots(os.Stdout, suggestions)
		}
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		file := report.AssessmentFile{
			Profile:    profile,
			Assessment: assessment,
			Advice:     advice,
			Pivots:     suggestions,
		}
		if err := report.WriteAssessmentFile(savePath, file); err != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "Saved assessment to", savePath)
	}
	return nil
}

// pivotSuggestions retrieves catalog candidates and ranks them for the
// researcher. Failures log and return nothing; pivots are advisory.
func pivotSuggestions(ctx context.Context, cfg types.AdvisorConfig, embedClient *embed.Client, reasoner *llm.Client, profile types.ResearchProfile, assessment types.NoveltyAssessment) []types.PivotSuggestion {
	store, err := gapstore.Open(cfg.Gaps.StorePath, logger)
	if err != nil {
		logger.Warn("opening gap store failed, skipping pivot suggestions", zap.Error(err))
		return nil
	}
	defer store.Close()

	var classification types.ResearcherClassification
	if assessment.Classification != nil {
		classification = *assessment.Classification
	}
	candidates, err := gaps.NewRetriever(store, embedClient, cfg.Gaps, logger).
		Retrieve(ctx, profile, classification)
	if err != nil {
		logger.Warn("gap retrieval failed, skipping pivot suggestions", zap.Error(err))
		return nil
	}
	return gaps.NewMatcher(reasoner, logger).Match(ctx, profile, assessment, candidates, 0)
}

func profileFromFlags(cmd *cobra.Command) types.ResearchProfile {
	skills, _ := cmd.Flags().GetStringSlice("skills")
	expertise, _ := cmd.Flags().GetStringSlice("expertise")
	motivations, _ := cmd.Flags().GetStringSlice("motivations")
	interests, _ := cmd.Flags().GetStringSlice("interests")
	return types.ResearchProfile{
		Skills:         skills,
		ExpertiseAreas: expertise,
		Motivations:    motivations,
		Interests:      interests,
	}
}

func init() {
	assessCmd.Flags().String("question", "", "research question to assess")
	assessCmd.Flags().StringSlice("skills", nil, "researcher skills (comma-separated)")
	assessCmd.Flags().StringSlice("expertise", nil, "researcher expertise areas (comma-separated)")
	assessCmd.Flags().StringSlice("motivations", nil, "researcher motivations (comma-separated)")
	assessCmd.Flags().StringSlice("interests", nil, "researcher interests (comma-separated)")
	assessCmd.Flags().Bool("json", false, "output the assessment as JSON")
	assessCmd.Flags().String("save", "", "write the assessment to a YAML file")
	assessCmd.Flags().Bool("pivots", false, "suggest pivot opportunities from the gap catalog")

	rootCmd.AddCommand(assessCmd)
}
