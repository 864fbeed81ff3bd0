// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/pkg/types"
)

var decomposePromptTmpl = template.Must(template.New("decompose").Parse(`You are a research analyst. Break down the following research question into its structured components.

Research question:
{{.Question}}
{{if .Context}}
Researcher context:
{{.Context}}
{{end}}
Identify:
- core_questions: 1 to 3 fundamental questions the research aims to answer
- core_motivations: what drives this research
- potential_impact_domains: who or what benefits if the research succeeds
- key_concepts: specific searchable terms (genus or system names, exact techniques, named models). Prefer precise multi-word phrases over broad field words.

Respond with a JSON object containing exactly those four string-array fields. Do not include any text outside the JSON object.

Example response:
{"core_questions": ["Does song divergence drive reproductive isolation in Thamnophilidae?"], "core_motivations": ["understand speciation mechanisms"], "potential_impact_domains": ["evolutionary biology", "bioacoustics"], "key_concepts": ["Thamnophilidae", "song divergence", "reproductive isolation"]}
`))

const maxCoreQuestions = 3

// Decompose breaks a research question into core questions, motivations,
// impact domains, and searchable key concepts. On any call or parse
// failure it degrades to a decomposition holding just the raw question, so
// retrieval always has something to plan from.
func (c *Client) Decompose(ctx context.Context, question string, profile types.ResearchProfile) types.ResearchDecomposition {
	fallback := types.ResearchDecomposition{CoreQuestions: []string{question}}

	var buf bytes.Buffer
	err := decomposePromptTmpl.Execute(&buf, struct {
		Question string
		Context  string
	}{Question: question, Context: profileContext(profile)})
	if err != nil {
		c.log.Warn("rendering decomposition prompt failed", zap.Error(err))
		return fallback
	}

	text, err := c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.3, maxTokens: 500})
	if err != nil {
		c.log.Warn("decomposition call failed, using raw question", zap.Error(err))
		return fallback
	}

	var dec types.ResearchDecomposition
	if err := json.Unmarshal([]byte(jsonBlock(text)), &dec); err != nil {
		c.log.Warn("decomposition response unparseable, using raw question", zap.Error(err))
		return fallback
	}
	if len(dec.CoreQuestions) == 0 {
		dec.CoreQuestions = []string{question}
	}
	if len(dec.CoreQuestions) > maxCoreQuestions {
		dec.CoreQuestions = dec.CoreQuestions[:maxCoreQuestions]
	}
	return dec
}

// profileContext renders the researcher attributes that help the model
// ground the decomposition; empty when the profile carries none.
func profileContext(p types.ResearchProfile) string {
	var lines []string
	if p.ProblemDescription != "" {
		lines = append(lines, "Problem description: "+p.ProblemDescription)
	}
	if len(p.Skills) > 0 {
		lines = append(lines, "Skills: "+strings.Join(p.Skills, ", "))
	}
	if len(p.ExpertiseAreas) > 0 {
		lines = append(lines, "Expertise: "+strings.Join(p.ExpertiseAreas, ", "))
	}
	if len(p.Motivations) > 0 {
		lines = append(lines, "Motivations: "+strings.Join(p.Motivations, ", "))
	}
	return strings.Join(lines, "\n")
}
