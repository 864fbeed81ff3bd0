// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search retrieves literature evidence for a research question.
// It plans keyword query variants from the question's decomposition, fans
// them out against the OpenAlex API alongside an optional paid semantic
// query, merges the results, and reranks them by local lexical relevance.
// Retrieval never fails hard: every stage degrades toward an empty result
// set and the caller decides what absence of evidence means.
package search

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-advisor/internal/embed"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// PaperSearcher is the slice of the search client the retriever uses.
type PaperSearcher interface {
	SearchPapers(ctx context.Context, query string, limit int) []types.Paper
	SearchTitleAbstract(ctx context.Context, query string, limit int) []types.Paper
	SemanticSearch(ctx context.Context, query string, limit int) []types.Paper
	RemainingBudget(ctx context.Context) *float64
}

// Embedder is the slice of the embedding client the reranker uses.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

const (
	defaultSearchLimit     = 8
	defaultPerVariant      = 5
	defaultBudgetThreshold = 0.05
	maxSemanticQueryLen    = 2000
	nicheLimitCeiling      = 8
)

// Retriever runs the layered retrieval strategy: semantic and keyword
// branches in parallel, a broad top-up when precision queries come back
// thin, and a two-step fallback cascade when everything is empty.
type Retriever struct {
	client   PaperSearcher
	embedder Embedder
	cfg      types.SearchConfig
	log      *zap.Logger
}

// NewRetriever builds a retriever. The embedder may be nil; the embedding
// rerank stage is skipped without one. A nil logger disables logging.
func NewRetriever(client PaperSearcher, embedder Embedder, cfg types.SearchConfig, log *zap.Logger) *Retriever {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = defaultSearchLimit
	}
	if cfg.QueriesPerVariant <= 0 {
		cfg.QueriesPerVariant = defaultPerVariant
	}
	if cfg.SemanticBudgetThreshold <= 0 {
		cfg.SemanticBudgetThreshold = defaultBudgetThreshold
	}
	if cfg.BroadTerms == nil {
		cfg.BroadTerms = types.DefaultBroadTerms()
	}
	if cfg.TopicVocabulary == nil {
		cfg.TopicVocabulary = types.DefaultTopicVocabulary()
	}
	return &Retriever{client: client, embedder: embedder, cfg: cfg, log: log}
}

// Retrieve returns the evidence set for a research question, capped at the
// configured search limit. An empty slice means the question found no
// literature in any retrieval mode.
func (r *Retriever) Retrieve(ctx context.Context, question string, dec types.ResearchDecomposition) []types.Paper {
	limit := r.cfg.SearchLimit
	variants := buildQueryVariants(question, dec, r.cfg.BroadTerms, r.cfg.TopicVocabulary)
	r.log.Debug("planned query variants", zap.Strings("variants", variants))

	var semantic, keyword []types.Paper
	g, gctx := errgroup.WithContext(ctx)
	if r.semanticAllowed(ctx) {
		g.Go(func() error {
			semantic = r.client.SemanticSearch(gctx, semanticQuery(question, dec), limit)
			return nil
		})
	}
	g.Go(func() error {
		keyword = r.keywordSearch(gctx, variants, limit)
		return nil
	})
	_ = g.Wait()

	papers := mergePair(semantic, keyword, types.RetrievalSemantic, types.RetrievalKeyword, limit)

	// Fallback cascade, one step at a time.
	if len(papers) == 0 {
		r.log.Info("variant queries empty, falling back to the raw question")
		papers = r.client.SearchTitleAbstract(ctx, question, limit)
	}
	if len(papers) == 0 {
		ultra := ultraBroadQuery(question, dec)
		r.log.Info("raw question empty, falling back to ultra-broad query", zap.String("query", ultra))
		papers = r.client.SearchTitleAbstract(ctx, ultra, limit)
	}
	if len(papers) == 0 {
		r.log.Warn("all retrieval stages returned nothing", zap.String("question", question))
		return nil
	}

	papers = rerankLocal(papers, question, dec, r.cfg.BroadTerms, limit)
	if r.cfg.UseEmbeddingRerank && r.embedder != nil {
		papers = r.embedRerank(ctx, question, papers, limit)
	}
	return papers
}

// semanticAllowed gates the paid semantic branch on configuration and on
// the remaining daily budget. An unknown budget keeps the gate closed.
func (r *Retriever) semanticAllowed(ctx context.Context) bool {
	if !r.cfg.UseSemanticSearch {
		return false
	}
	budget := r.client.RemainingBudget(ctx)
	if budget == nil {
		return false
	}
	if *budget < r.cfg.SemanticBudgetThreshold {
		r.log.Info("semantic budget below threshold, keyword only",
			zap.Float64("remaining_usd", *budget),
			zap.Float64("threshold_usd", r.cfg.SemanticBudgetThreshold))
		return false
	}
	return true
}

// keywordSearch runs the keyword branch. The niche variant goes first at a
// boosted limit; the remaining variants fan out concurrently and merge by
// variant-hit count. When the merged set is still thin, every variant gets
// one broad full-text pass to top it up.
func (r *Retriever) keywordSearch(ctx context.Context, variants []string, limit int) []types.Paper {
	if !r.cfg.MultiQuery || len(variants) == 1 {
		return r.client.SearchTitleAbstract(ctx, variants[0], limit)
	}

	perVariant := r.cfg.QueriesPerVariant
	nicheLimit := 2 * perVariant
	if nicheLimit > nicheLimitCeiling {
		nicheLimit = nicheLimitCeiling
	}
	niche := r.client.SearchTitleAbstract(ctx, variants[0], nicheLimit)

	rest := variants[1:]
	lists := make([][]types.Paper, len(rest))
	var wg sync.WaitGroup
	for i, q := range rest {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			lists[i] = r.client.SearchTitleAbstract(ctx, q, perVariant)
		}(i, q)
	}
	wg.Wait()

	merged := mergePair(niche, mergeRanked(lists, limit),
		types.RetrievalKeyword, types.RetrievalKeyword, limit)

	floor := limit / 2
	if floor < 5 {
		floor = 5
	}
	if len(merged) < floor {
		merged = r.broadTopUp(ctx, variants, merged, limit)
	}
	return merged
}

// broadTopUp reissues every variant as a full-text search and folds papers
// with unseen ids into the merged set, up to limit.
func (r *Retriever) broadTopUp(ctx context.Context, variants []string, merged []types.Paper, limit int) []types.Paper {
	lists := make([][]types.Paper, len(variants))
	var wg sync.WaitGroup
	for i, q := range variants {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			lists[i] = r.client.SearchPapers(ctx, q, r.cfg.QueriesPerVariant)
		}(i, q)
	}
	wg.Wait()

	known := make(map[string]struct{}, len(merged))
	for _, p := range merged {
		known[p.ID] = struct{}{}
	}
	for _, list := range lists {
		for _, p := range list {
			if limit > 0 && len(merged) == limit {
				return merged
			}
			if _, dup := known[p.ID]; dup {
				continue
			}
			known[p.ID] = struct{}{}
			if p.RetrievalSource == "" {
				p.RetrievalSource = types.RetrievalKeyword
			}
			merged = append(merged, p)
		}
	}
	return merged
}

// embedRerank reorders papers by embedding similarity to the question.
// On any embedding failure the lexical order stands.
func (r *Retriever) embedRerank(ctx context.Context, question string, papers []types.Paper, limit int) []types.Paper {
	texts := make([]string, 0, len(papers)+1)
	texts = append(texts, question)
	for _, p := range papers {
		abstract := p.Abstract
		if len(abstract) > 200 {
			abstract = abstract[:200]
		}
		text := strings.TrimSpace(p.Title + " " + abstract)
		if text == "" {
			// Keep batch positions aligned with papers.
			text = " "
		}
		texts = append(texts, text)
	}

	vecs, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		r.log.Warn("embedding rerank unavailable, keeping lexical order", zap.Error(err))
		return truncatePapers(papers, limit)
	}

	qv := vecs[0]
	sims := make([]float64, len(papers))
	for i := range papers {
		sims[i] = embed.Cosine(qv, vecs[i+1])
	}

	idx := make([]int, len(papers))
	for i := range idx {
		idx[i] = i
	}
	sortStableByScore(idx, sims)

	out := make([]types.Paper, 0, len(papers))
	for _, i := range idx {
		out = append(out, papers[i])
	}
	return truncatePapers(out, limit)
}

// semanticQuery joins the raw question with the first core question so the
// paid search sees both phrasings, capped at the API's query length.
func semanticQuery(question string, dec types.ResearchDecomposition) string {
	q := question
	if len(dec.CoreQuestions) > 0 {
		q = question + " " + dec.CoreQuestions[0]
	}
	if len(q) > maxSemanticQueryLen {
		q = q[:maxSemanticQueryLen]
	}
	return q
}

// ultraBroadQuery is the last resort: an OR of the leading key concepts,
// or the first words of the question itself.
func ultraBroadQuery(question string, dec types.ResearchDecomposition) string {
	concepts := usableConcepts(dec.KeyConcepts)
	if len(concepts) > 0 {
		return strings.Join(firstN(concepts, 3), " OR ")
	}
	return shortenQuery(question, 3)
}
