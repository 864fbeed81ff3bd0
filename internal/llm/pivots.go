// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/pkg/types"
)

var pivotPromptTmpl = template.Must(template.New("pivots").Parse(`You are a research career advisor. The researcher below is considering a pivot. Match their skills against the cataloged open problems and pick the ones worth pivoting to.

Researcher:
- Current question: {{.Question}}
- Novelty verdict on it: {{.Verdict}}
{{if .Skills}}- Skills: {{.Skills}}
{{end}}{{if .Expertise}}- Expertise: {{.Expertise}}
{{end}}{{if .Interests}}- Interests: {{.Interests}}
{{end}}
Open problems (numbered by gap_index):
{{.Gaps}}
For each promising match, produce:
- gap_index: the problem's number above
- relevance_score: skill fit between 0.0 and 1.0
- impact_potential: HIGH, MEDIUM, LOW, or UNCERTAIN for solving it
- match_reasoning: why this researcher, this problem
- feasibility_for_researcher: concretely how their skills apply
- impact_rationale: why this beats their current direction

Respond with a JSON object of the form {"matches": [{...}, ...]} containing only well-matched problems, best first. Do not include any text outside the JSON object.
`))

// PivotMatch is one raw gap match from the reasoning service, before the
// matcher validates indexes and computes composite ranks.
type PivotMatch struct {
	GapIndex        int     `json:"gap_index"`
	RelevanceScore  float64 `json:"relevance_score"`
	ImpactPotential string  `json:"impact_potential"`
	MatchReasoning  string  `json:"match_reasoning"`
	Feasibility     string  `json:"feasibility_for_researcher"`
	ImpactRationale string  `json:"impact_rationale"`
}

const maxPivotDescription = 300

// MatchPivots asks the reasoning service to match the researcher against
// candidate gap entries. An invalid response is retried once with a
// stricter instruction; a second invalid response yields an empty list,
// not an error. Transport failures return the error.
func (c *Client) MatchPivots(ctx context.Context, profile types.ResearchProfile, assessment types.NoveltyAssessment, gaps []types.GapEntry) ([]PivotMatch, error) {
	var buf bytes.Buffer
	err := pivotPromptTmpl.Execute(&buf, struct {
		Question  string
		Verdict   types.Verdict
		Skills    string
		Expertise string
		Interests string
		Gaps      string
	}{
		Question:  profile.ResearchQuestion,
		Verdict:   assessment.Verdict,
		Skills:    strings.Join(profile.Skills, ", "),
		Expertise: strings.Join(profile.ExpertiseAreas, ", "),
		Interests: strings.Join(profile.Interests, ", "),
		Gaps:      formatGapList(gaps),
	})
	if err != nil {
		return nil, fmt.Errorf("rendering pivot prompt: %w", err)
	}

	params := chatParams{prompt: buf.String(), temperature: 0.4, maxTokens: 2000, jsonObject: true}
	text, err := c.complete(ctx, params)
	if err != nil {
		return nil, err
	}
	if matches, ok := parsePivotMatches(text); ok {
		return matches, nil
	}

	c.log.Warn("pivot match response invalid, retrying with strict instruction",
		zap.Int("candidates", len(gaps)))
	params.prompt += "\nYour previous response was not valid. Respond with ONLY the JSON object, no other text.\n"
	text, err = c.complete(ctx, params)
	if err != nil {
		return nil, err
	}
	if matches, ok := parsePivotMatches(text); ok {
		return matches, nil
	}
	c.log.Warn("pivot match response invalid after retry, returning no matches")
	return nil, nil
}

// parsePivotMatches accepts either the documented {"matches": [...]}
// object or a bare array.
func parsePivotMatches(text string) ([]PivotMatch, bool) {
	block := jsonBlock(text)
	if strings.HasPrefix(block, "[") {
		var matches []PivotMatch
		if err := json.Unmarshal([]byte(block), &matches); err != nil {
			return nil, false
		}
		return matches, true
	}

	var wrapped struct {
		Matches []PivotMatch `json:"matches"`
	}
	if err := json.Unmarshal([]byte(block), &wrapped); err != nil {
		return nil, false
	}
	if wrapped.Matches == nil {
		// Valid JSON without the matches array is still an invalid response.
		return nil, false
	}
	return wrapped.Matches, true
}

// formatGapList renders the numbered candidate problems for the prompt.
func formatGapList(gaps []types.GapEntry) string {
	var b strings.Builder
	for i, g := range gaps {
		fmt.Fprintf(&b, "%d. %s", i, g.Title)
		if taxonomy := gapTaxonomyLine(g); taxonomy != "" {
			fmt.Fprintf(&b, " [%s]", taxonomy)
		}
		b.WriteString("\n")
		if g.Description != "" {
			description := g.Description
			if len(description) > maxPivotDescription {
				description = description[:maxPivotDescription]
			}
			fmt.Fprintf(&b, "   %s\n", description)
		}
	}
	return b.String()
}

func gapTaxonomyLine(g types.GapEntry) string {
	parts := make([]string, 0, 4)
	for _, s := range []string{g.Domain, g.Field, g.Subfield, g.Topic} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " > ")
}
