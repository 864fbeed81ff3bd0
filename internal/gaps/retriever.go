// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps serves the open-problem side of the advisor: retrieving
// catalog entries that fit a researcher's profile, ranking pivot
// suggestions against an assessment, and the maintenance tasks that keep
// the catalog embedded and taxonomy-labeled.
package gaps

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/pkg/types"
)

const defaultTopK = 50

// Taxonomy boosts are exclusive; an entry gets the most specific match
// only.
const (
	subfieldBoost = 0.15
	fieldBoost    = 0.10
	domainBoost   = 0.05
)

// Catalog is the slice of the gap store the retriever reads.
type Catalog interface {
	All(ctx context.Context) ([]types.GapEntry, error)
	ByTaxonomy(ctx context.Context, domain, field, subfield string, limit int) ([]types.GapEntry, error)
	SimilarToEmbedding(ctx context.Context, query []float32, limit int) ([]types.GapEntry, error)
}

// Embedder turns profile text into a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever selects gap entries relevant to one researcher. Vector
// similarity drives the candidate set when enabled; the researcher's
// classification then supplements and re-ranks by taxonomy proximity.
type Retriever struct {
	catalog  Catalog
	embedder Embedder
	cfg      types.GapConfig
	log      *zap.Logger
}

// NewRetriever builds a Retriever. The embedder may be nil, which
// disables the vector path.
func NewRetriever(catalog Catalog, embedder Embedder, cfg types.GapConfig, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	return &Retriever{catalog: catalog, embedder: embedder, cfg: cfg, log: log}
}

// Retrieve returns up to RetrievalTopK gap entries for the profile,
// most relevant first. Every degradation of the vector path falls back
// to an unordered catalog scan; only a failing scan is an error.
func (r *Retriever) Retrieve(ctx context.Context, profile types.ResearchProfile, classification types.ResearcherClassification) ([]types.GapEntry, error) {
	topK := r.cfg.RetrievalTopK
	if topK <= 0 {
		topK = defaultTopK
	}

	candidates := r.vectorCandidates(ctx, profile, topK)
	if candidates == nil {
		all, err := r.catalog.All(ctx)
		if err != nil {
			return nil, err
		}
		candidates = all
	}

	if classification.PrimaryField == "" && classification.PrimaryDomain == "" {
		if len(candidates) > topK {
			candidates = candidates[:topK]
		}
		return candidates, nil
	}

	candidates = r.supplementByTaxonomy(ctx, candidates, classification, topK)
	candidates = boostAndRank(candidates, classification)
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// vectorCandidates runs the similarity search. A nil return means the
// caller should fall back to a full scan.
func (r *Retriever) vectorCandidates(ctx context.Context, profile types.ResearchProfile, topK int) []types.GapEntry {
	if !r.cfg.UseVectorSearch || r.embedder == nil {
		return nil
	}
	query := profile.QueryText()
	if query == "" {
		return nil
	}
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.log.Warn("profile embedding failed, falling back to full scan", zap.Error(err))
		return nil
	}
	entries, err := r.catalog.SimilarToEmbedding(ctx, vec, topK)
	if err != nil {
		r.log.Warn("similarity search failed, falling back to full scan", zap.Error(err))
		return nil
	}
	if len(entries) == 0 {
		return nil
	}
	return entries
}

// supplementByTaxonomy appends entries matching the researcher's
// taxonomy that the candidate set missed, keeping the total at topK
// additions or fewer.
func (r *Retriever) supplementByTaxonomy(ctx context.Context, candidates []types.GapEntry, c types.ResearcherClassification, topK int) []types.GapEntry {
	extra, err := r.catalog.ByTaxonomy(ctx, c.PrimaryDomain, c.PrimaryField, c.PrimarySubfield, topK)
	if err != nil {
		r.log.Warn("taxonomy supplement failed", zap.Error(err))
		return candidates
	}
	seen := make(map[string]bool, len(candidates))
	for _, e := range candidates {
		seen[e.SourceURL] = true
	}
	added := 0
	for _, e := range extra {
		if added >= topK {
			break
		}
		if seen[e.SourceURL] {
			continue
		}
		seen[e.SourceURL] = true
		candidates = append(candidates, e)
		added++
	}
	return candidates
}

// boostAndRank stable-sorts candidates by taxonomy boost, descending.
// Entries with equal boost keep their incoming order, which preserves
// similarity rank within each band.
func boostAndRank(candidates []types.GapEntry, c types.ResearcherClassification) []types.GapEntry {
	boosts := make([]float64, len(candidates))
	for i, e := range candidates {
		boosts[i] = taxonomyBoost(e, c)
	}
	idx := make([]int, len(candidates))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return boosts[idx[a]] > boosts[idx[b]]
	})
	ranked := make([]types.GapEntry, len(candidates))
	for i, j := range idx {
		ranked[i] = candidates[j]
	}
	return ranked
}

// taxonomyBoost scores how closely an entry's labels match the
// researcher's position. Empty labels never match.
func taxonomyBoost(e types.GapEntry, c types.ResearcherClassification) float64 {
	switch {
	case e.Subfield != "" && e.Subfield == c.PrimarySubfield:
		return subfieldBoost
	case e.Field != "" && e.Field == c.PrimaryField:
		return fieldBoost
	case e.Domain != "" && e.Domain == c.PrimaryDomain:
		return domainBoost
	default:
		return 0
	}
}
