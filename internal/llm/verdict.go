// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-advisor/pkg/types"
)

var verdictPromptTmpl = template.Must(template.New("verdict").Parse(`You are a research novelty assessor. Judge whether the following research question is already answered by the literature.

Research question:
{{.Question}}
{{if .CoreQuestions}}
Core questions:
{{range .CoreQuestions}}- {{.}}
{{end}}{{end}}
Retrieved evidence ({{.PaperCount}} papers; {{.OverallStats}}):
{{.Evidence}}
Classify the question as one of:
- SOLVED: the literature already answers it directly
- MARGINAL: answered in large part; remaining room is incremental
- NOVEL: no retrieved work answers it; the question is open
- UNCERTAIN: the evidence is too thin or tangential to judge

Also give a novelty score between 0.0 (fully solved) and 1.0 (fully novel), and a short reasoning paragraph citing the decisive papers.

Respond with a JSON object: {"verdict": "...", "score": 0.0, "reasoning": "..."}. Do not include any text outside the JSON object.
`))

// VerdictInput carries everything the verdict prompt presents: the
// question, its decomposition, the evidence set with overall statistics,
// and the researcher's taxonomy position with the tiered partition.
type VerdictInput struct {
	Question       string
	Decomposition  types.ResearchDecomposition
	Papers         []types.Paper
	Stats          types.FWCIStats
	Classification types.ResearcherClassification
	Tiers          []types.TierEvidence
}

// VerdictResult is the parsed novelty judgment.
type VerdictResult struct {
	Verdict   types.Verdict
	Score     float64
	Reasoning string
}

const flatEvidenceLimit = 10

// Verdict asks the reasoning service for a novelty judgment over the
// retrieved evidence. When the researcher's classification is known the
// papers are presented grouped by proximity tier with per-tier statistics;
// otherwise as a flat list of the top papers. Call and parse failures
// return an error; the assessment pipeline substitutes an UNCERTAIN
// verdict built from bibliometrics alone.
func (c *Client) Verdict(ctx context.Context, in VerdictInput) (VerdictResult, error) {
	var buf bytes.Buffer
	err := verdictPromptTmpl.Execute(&buf, struct {
		Question      string
		CoreQuestions []string
		PaperCount    int
		OverallStats  string
		Evidence      string
	}{
		Question:      in.Question,
		CoreQuestions: in.Decomposition.CoreQuestions,
		PaperCount:    len(in.Papers),
		OverallStats:  formatStats(in.Stats),
		Evidence:      formatEvidence(in),
	})
	if err != nil {
		return VerdictResult{}, fmt.Errorf("rendering verdict prompt: %w", err)
	}

	text, err := c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.3, maxTokens: 600})
	if err != nil {
		return VerdictResult{}, err
	}

	var parsed struct {
		Verdict   string  `json:"verdict"`
		Score     float64 `json:"score"`
		Reasoning string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonBlock(text)), &parsed); err != nil {
		return VerdictResult{}, fmt.Errorf("parsing verdict response: %w", err)
	}
	verdict, ok := parseVerdict(parsed.Verdict)
	if !ok {
		return VerdictResult{}, fmt.Errorf("verdict response carries unknown label %q", parsed.Verdict)
	}
	return VerdictResult{
		Verdict:   verdict,
		Score:     clamp01(parsed.Score),
		Reasoning: parsed.Reasoning,
	}, nil
}

func parseVerdict(s string) (types.Verdict, bool) {
	switch types.Verdict(strings.ToUpper(strings.TrimSpace(s))) {
	case types.VerdictSolved:
		return types.VerdictSolved, true
	case types.VerdictMarginal:
		return types.VerdictMarginal, true
	case types.VerdictNovel:
		return types.VerdictNovel, true
	case types.VerdictUncertain:
		return types.VerdictUncertain, true
	}
	return "", false
}

// tierLabels gives the prompt reader the meaning of each proximity tier.
var tierLabels = map[types.ProximityTier]string{
	types.TierSameTopic:    "direct competition, same topic",
	types.TierSameSubfield: "same subfield",
	types.TierSameField:    "same field",
	types.TierCrossField:   "cross-field context",
}

// formatEvidence renders the paper set for the prompt: tier-grouped with
// per-tier statistics when the classification resolved, flat otherwise.
func formatEvidence(in VerdictInput) string {
	if in.Classification.Empty() || len(in.Tiers) == 0 {
		return formatPaperList(in.Papers, flatEvidenceLimit)
	}

	var b strings.Builder
	for _, tier := range in.Tiers {
		if len(tier.Papers) == 0 {
			continue
		}
		fmt.Fprintf(&b, "[%s] (%s) %d papers; %s\n",
			tier.Tier, tierLabels[tier.Tier], len(tier.Papers), formatStats(tier.Stats))
		b.WriteString(formatPaperList(tier.Papers, flatEvidenceLimit))
	}
	if b.Len() == 0 {
		return formatPaperList(in.Papers, flatEvidenceLimit)
	}
	return b.String()
}

func formatPaperList(papers []types.Paper, limit int) string {
	var b strings.Builder
	for i, p := range papers {
		if i == limit {
			break
		}
		b.WriteString(formatPaperLine(p))
	}
	return b.String()
}

func formatPaperLine(p types.Paper) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(p.Title)
	if p.Year > 0 {
		fmt.Fprintf(&b, " (%d)", p.Year)
	}
	fmt.Fprintf(&b, " [FWCI %s, %d citations]", formatMetric(p.FWCI), p.CitedByCount)
	if p.Abstract != "" {
		abstract := p.Abstract
		if len(abstract) > 300 {
			abstract = abstract[:300]
		}
		b.WriteString(": ")
		b.WriteString(abstract)
	}
	b.WriteString("\n")
	return b.String()
}

// formatStats summarizes an FWCIStats for prompt text.
func formatStats(s types.FWCIStats) string {
	return fmt.Sprintf("median FWCI %s over %d scored papers, mean percentile %s, citation band %s-%s",
		formatMetric(s.MedianFWCI), s.PapersWithFWCI, formatMetric(s.FWCIPercentile),
		formatMetric(s.CitationPercentileMin), formatMetric(s.CitationPercentileMax))
}

func formatMetric(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", *v)
}
