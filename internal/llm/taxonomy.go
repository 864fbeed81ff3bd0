// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"text/template"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// taxonomyReference anchors the classifier to the literature service's
// domain and field vocabulary so enriched gap entries match paper topics.
const taxonomyReference = `Domains: Physical Sciences; Life Sciences; Health Sciences; Social Sciences.
Fields by domain:
- Physical Sciences: Chemical Engineering; Chemistry; Computer Science; Earth and Planetary Sciences; Energy; Engineering; Environmental Science; Materials Science; Mathematics; Physics and Astronomy
- Life Sciences: Agricultural and Biological Sciences; Biochemistry, Genetics and Molecular Biology; Immunology and Microbiology; Neuroscience; Pharmacology, Toxicology and Pharmaceutics
- Health Sciences: Dentistry; Health Professions; Medicine; Nursing; Veterinary
- Social Sciences: Arts and Humanities; Business, Management and Accounting; Decision Sciences; Economics, Econometrics and Finance; Psychology; Social Sciences`

var taxonomyPromptTmpl = template.Must(template.New("taxonomy").Parse(`Classify this open research problem into a four-level topic taxonomy.

Problem: {{.Title}}
{{if .Description}}{{.Description}}
{{end}}{{if .Category}}Catalog category: {{.Category}}
{{end}}
Use this reference vocabulary for domain and field; subfield and topic are free-form but should be conventional discipline names:
{{.Reference}}

Respond with a JSON object: {"domain": "...", "field": "...", "subfield": "...", "topic": "..."}. Use an empty string for any level you cannot determine. Do not include any text outside the JSON object.
`))

// TaxonomyLabels is a four-level classification for a gap entry.
type TaxonomyLabels struct {
	Domain   string `json:"domain"`
	Field    string `json:"field"`
	Subfield string `json:"subfield"`
	Topic    string `json:"topic"`
}

const maxTaxonomyDescription = 600

// ClassifyGapTaxonomy assigns taxonomy labels to a gap entry when
// literature search found no topic annotations for it. Returns nil on any
// call or parse failure, or when the model cannot place the entry at all;
// the enricher skips such entries.
func (c *Client) ClassifyGapTaxonomy(ctx context.Context, entry types.GapEntry) *TaxonomyLabels {
	description := entry.Description
	if len(description) > maxTaxonomyDescription {
		description = description[:maxTaxonomyDescription]
	}

	var buf bytes.Buffer
	err := taxonomyPromptTmpl.Execute(&buf, struct {
		Title       string
		Description string
		Category    string
		Reference   string
	}{
		Title:       entry.Title,
		Description: description,
		Category:    entry.Category,
		Reference:   taxonomyReference,
	})
	if err != nil {
		c.log.Warn("rendering taxonomy prompt failed", zap.Error(err))
		return nil
	}

	text, err := c.complete(ctx, chatParams{prompt: buf.String(), temperature: 0.2, maxTokens: 200})
	if err != nil {
		c.log.Warn("taxonomy classification call failed",
			zap.String("source_url", entry.SourceURL), zap.Error(err))
		return nil
	}

	var labels TaxonomyLabels
	if err := json.Unmarshal([]byte(jsonBlock(text)), &labels); err != nil {
		c.log.Warn("taxonomy response unparseable",
			zap.String("source_url", entry.SourceURL), zap.Error(err))
		return nil
	}
	if labels == (TaxonomyLabels{}) {
		return nil
	}
	return &labels
}
