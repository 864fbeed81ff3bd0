// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/research-advisor/pkg/types"
)

const ruleWidth = 96

// WriteAssessment renders the assessment report as aligned text.
func WriteAssessment(w io.Writer, a types.NoveltyAssessment, advice Advice) {
	fmt.Fprintf(w, "Verdict: %s  (novelty score %.2f)\n", a.Verdict, a.Score)
	fmt.Fprintf(w, "Advice:  %s  (confidence %.2f)\n", advice.Recommendation, advice.Confidence)
	if a.Reasoning != "" {
		fmt.Fprintf(w, "\n%s\n", a.Reasoning)
	}

	fmt.Fprintf(w, "\nEvidence base: %d papers", a.RelatedPapersCount)
	if a.MedianFWCI != nil {
		fmt.Fprintf(w, ", median FWCI %.2f", *a.MedianFWCI)
	}
	if a.FWCIPercentile != nil {
		fmt.Fprintf(w, ", mean citation percentile %.2f", *a.FWCIPercentile)
	}
	if a.CitationPercentileMin != nil && a.CitationPercentileMax != nil {
		fmt.Fprintf(w, ", citation band %.0f-%.0f", *a.CitationPercentileMin, *a.CitationPercentileMax)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w)
	writeJudgment(w, "Field activity:", a.ImpactAssessment, a.ImpactReasoning)
	writeJudgment(w, "Expected impact:", a.ExpectedImpact, a.ExpectedImpactReasoning)
	writeJudgment(w, "Real-world impact:", a.RealWorldImpact, a.RealWorldImpactReasoning)

	if c := a.Classification; c != nil {
		fmt.Fprintf(w, "\nResearcher position: %s\n", classificationPath(*c))
		if len(c.SecondaryTopics) > 0 {
			fmt.Fprintf(w, "Secondary topics:    %s\n", strings.Join(c.SecondaryTopics, "; "))
		}
	}

	if len(a.Evidence) > 0 {
		fmt.Fprintf(w, "\n%-4s  %-5s  %-5s  %s\n", "Rank", "Year", "FWCI", "Evidence")
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
		for i, c := range a.Evidence {
			fmt.Fprintf(w, "%-4d  %-5s  %-5s  %s\n",
				i+1, yearCell(c.Year), fwciCell(c.FWCI), truncateCell(c.Title, 74))
			if c.URL != "" {
				fmt.Fprintf(w, "%-19s%s\n", "", c.URL)
			}
		}
	}
}

// WritePivots renders ranked pivot suggestions.
func WritePivots(w io.Writer, suggestions []types.PivotSuggestion) {
	if len(suggestions) == 0 {
		fmt.Fprintln(w, "No pivot suggestions matched the researcher's profile.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-9s  %-5s  %s\n", "Rank", "Impact", "Rel", "Open problem")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	for i, s := range suggestions {
		fmt.Fprintf(w, "%-4d  %-9s  %-5.2f  %s\n",
			i+1, s.ImpactPotential, s.RelevanceScore, truncateCell(s.Gap.Title, 72))
		for _, line := range []string{s.MatchReasoning, s.Feasibility, s.ImpactRationale} {
			if line != "" {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
		if s.Gap.SourceURL != "" {
			fmt.Fprintf(w, "      %s\n", s.Gap.SourceURL)
		}
	}
	fmt.Fprintf(w, "\n%d suggestion(s)\n", len(suggestions))
}

func writeJudgment(w io.Writer, label string, level types.ImpactLevel, reasoning string) {
	fmt.Fprintf(w, "%-19s %s\n", label, level)
	if reasoning != "" {
		fmt.Fprintf(w, "    %s\n", reasoning)
	}
}

func classificationPath(c types.ResearcherClassification) string {
	var levels []string
	for _, level := range []string{c.PrimaryDomain, c.PrimaryField, c.PrimarySubfield} {
		if level != "" {
			levels = append(levels, level)
		}
	}
	path := strings.Join(levels, " > ")
	if c.PrimaryTopic != "" {
		if path != "" {
			return fmt.Sprintf("%s (topic: %s)", path, c.PrimaryTopic)
		}
		return c.PrimaryTopic
	}
	if path == "" {
		return "unknown"
	}
	return path
}

func truncateCell(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func yearCell(year *int) string {
	if year == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *year)
}

func fwciCell(fwci *float64) string {
	if fwci == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *fwci)
}
