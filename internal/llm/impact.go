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

var fieldImpactPromptTmpl = template.Must(template.New("impact").Parse(`You are a bibliometric analyst. Judge how much high-impact activity currently surrounds this research question.

Research question:
{{.Question}}

Retrieved evidence ({{.PaperCount}} papers; {{.Stats}}):
{{.Evidence}}
Classify the current field activity as HIGH (the area draws strong, recent, highly-cited work), MEDIUM, LOW (a quiet corner), or UNCERTAIN if the evidence does not support a judgment. Weight the citation metrics above your prior knowledge.

Respond with a JSON object: {"level": "...", "reasoning": "..."}. Do not include any text outside the JSON object.
`))

var expectedImpactPromptTmpl = template.Must(template.New("expected").Parse(`You are a research strategy advisor. Predict the impact of the researcher's own work if they complete it.

Research question:
{{.Question}}

Novelty verdict for the question: {{.Verdict}}
{{if .Motivations}}
Stated motivations:
{{range .Motivations}}- {{.}}
{{end}}{{end}}{{if .ImpactDomains}}
Potential impact domains:
{{range .ImpactDomains}}- {{.}}
{{end}}{{end}}
Predict the expected impact of completing this research as HIGH, MEDIUM, LOW, or UNCERTAIN. Consider whether the question is still open, the size of the audience that would build on an answer, and how decisive an answer the proposed work could give.

Respond with a JSON object: {"level": "...", "reasoning": "..."}. Do not include any text outside the JSON object.
`))

var realWorldImpactPromptTmpl = template.Must(template.New("realworld").Parse(`You are a skeptical impact assessor. Judge the real-world, non-academic impact of answering this research question.

Research question:
{{.Question}}
{{if .ImpactDomains}}
Claimed impact domains:
{{range .ImpactDomains}}- {{.}}
{{end}}{{end}}
Apply strict criteria: only concrete consequences outside academia count, such as clinical practice, conservation outcomes, engineering applications, economic decisions, or public policy. "Advances our understanding" does not count. Most basic research is LOW under these criteria; reserve HIGH for work with a direct, named, plausible application path.

Classify as HIGH, MEDIUM, or LOW, or UNCERTAIN if the question itself is unintelligible.

Respond with a JSON object: {"level": "...", "reasoning": "..."}. Do not include any text outside the JSON object.
`))

// ImpactInput carries the evidence the impact prompts draw on. Each call
// site reads the fields it needs.
type ImpactInput struct {
	Question      string
	Decomposition types.ResearchDecomposition
	Papers        []types.Paper
	Stats         types.FWCIStats
	Verdict       types.Verdict
}

// levelResponse is the uniform JSON shape of the impact call sites.
type levelResponse struct {
	Level     string `json:"level"`
	Reasoning string `json:"reasoning"`
}

// Impact judges the current field activity around the question from the
// retrieved evidence. Call and parse failures return an error; the
// pipeline substitutes the FWCI-threshold level with generated reasoning.
func (c *Client) Impact(ctx context.Context, in ImpactInput) (types.ImpactLevel, string, error) {
	var buf bytes.Buffer
	err := fieldImpactPromptTmpl.Execute(&buf, struct {
		Question   string
		PaperCount int
		Stats      string
		Evidence   string
	}{
		Question:   in.Question,
		PaperCount: len(in.Papers),
		Stats:      formatStats(in.Stats),
		Evidence:   formatPaperList(in.Papers, flatEvidenceLimit),
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering impact prompt: %w", err)
	}

	text, err := c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.3, maxTokens: 400})
	if err != nil {
		return "", "", err
	}

	var parsed levelResponse
	if err := json.Unmarshal([]byte(jsonBlock(text)), &parsed); err != nil {
		return "", "", fmt.Errorf("parsing impact response: %w", err)
	}
	level, ok := parseImpactLevel(parsed.Level)
	if !ok {
		return "", "", fmt.Errorf("impact response carries unknown label %q", parsed.Level)
	}
	return level, parsed.Reasoning, nil
}

// ExpectedImpact predicts the impact of the researcher's work if
// completed. It never fails: an unusable label degrades to UNCERTAIN and a
// call error to UNCERTAIN with the error in the reasoning.
func (c *Client) ExpectedImpact(ctx context.Context, in ImpactInput) (types.ImpactLevel, string) {
	var buf bytes.Buffer
	err := expectedImpactPromptTmpl.Execute(&buf, struct {
		Question      string
		Verdict       types.Verdict
		Motivations   []string
		ImpactDomains []string
	}{
		Question:      in.Question,
		Verdict:       in.Verdict,
		Motivations:   in.Decomposition.CoreMotivations,
		ImpactDomains: in.Decomposition.PotentialImpactDomains,
	})
	if err == nil {
		var text string
		text, err = c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.3, maxTokens: 500})
		if err == nil {
			level, reasoning, ok := parseLevel(text)
			if ok {
				return level, reasoning
			}
			c.log.Warn("expected-impact response unusable, degrading to UNCERTAIN")
			if reasoning != "" {
				return types.ImpactUncertain, reasoning
			}
			return types.ImpactUncertain, "The reasoning service did not return a usable expected-impact judgment."
		}
	}
	c.log.Warn("expected-impact call failed", zap.Error(err))
	return types.ImpactUncertain, fmt.Sprintf("Expected-impact judgment unavailable: %v.", err)
}

// RealWorldImpact judges non-academic consequences under deliberately
// harsh criteria. An unusable response degrades to LOW: a judgment that
// cannot be articulated cleanly counts as no demonstrated impact. A call
// error degrades to UNCERTAIN with the error in the reasoning.
func (c *Client) RealWorldImpact(ctx context.Context, in ImpactInput) (types.ImpactLevel, string) {
	var buf bytes.Buffer
	err := realWorldImpactPromptTmpl.Execute(&buf, struct {
		Question      string
		ImpactDomains []string
	}{
		Question:      in.Question,
		ImpactDomains: in.Decomposition.PotentialImpactDomains,
	})
	if err == nil {
		var text string
		text, err = c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.3, maxTokens: 400})
		if err == nil {
			level, reasoning, ok := parseLevel(text)
			if ok {
				return level, reasoning
			}
			c.log.Warn("real-world-impact response unusable, degrading to LOW")
			if reasoning != "" {
				return types.ImpactLow, reasoning
			}
			return types.ImpactLow, "No articulable real-world impact was identified."
		}
	}
	c.log.Warn("real-world-impact call failed", zap.Error(err))
	return types.ImpactUncertain, fmt.Sprintf("Real-world-impact judgment unavailable: %v.", err)
}

// parseLevel extracts a level+reasoning response; ok is false when the
// JSON or the label is unusable. Reasoning may still be returned for an
// invalid label so callers can keep the model's explanation.
func parseLevel(text string) (types.ImpactLevel, string, bool) {
	var parsed levelResponse
	if err := json.Unmarshal([]byte(jsonBlock(text)), &parsed); err != nil {
		return "", "", false
	}
	level, ok := parseImpactLevel(parsed.Level)
	if !ok {
		return "", strings.TrimSpace(parsed.Reasoning), false
	}
	return level, parsed.Reasoning, true
}
