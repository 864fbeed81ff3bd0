// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/gapstore"
	"github.com/pdiddy/research-advisor/internal/llm"
	"github.com/pdiddy/research-advisor/internal/novelty"
	"github.com/pdiddy/research-advisor/pkg/types"
)

const (
	enrichSearchLimit = 5
	enrichBatchSize   = 50
	enrichIdleDelay   = 250 * time.Millisecond
)

// A throttled catalog API answers with an empty page rather than an
// error, so absence is not trusted until it has been retried.
var enrichRetryDelays = []time.Duration{2 * time.Second, 4 * time.Second}

// PaperSearcher finds published work matching a gap entry's title.
type PaperSearcher interface {
	SearchTitleAbstract(ctx context.Context, query string, limit int) []types.Paper
}

// TaxonomyClassifier labels an entry directly when no published work
// can be found for it. A nil result means the classifier gave up.
type TaxonomyClassifier interface {
	ClassifyGapTaxonomy(ctx context.Context, entry types.GapEntry) *llm.TaxonomyLabels
}

// Enricher assigns taxonomy labels to stored entries that lack them.
// Labels come from a weighted vote over the topic annotations of
// matching papers, with the classifier as fallback for entries nothing
// is published about.
type Enricher struct {
	store      *gapstore.Store
	searcher   PaperSearcher
	classifier TaxonomyClassifier
	log        *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewEnricher builds an Enricher over the given store and services.
func NewEnricher(store *gapstore.Store, searcher PaperSearcher, classifier TaxonomyClassifier, log *zap.Logger) *Enricher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Enricher{
		store:      store,
		searcher:   searcher,
		classifier: classifier,
		log:        log,
		sleep:      sleepCtx,
	}
}

// EnrichSummary reports the outcome of an enrichment run.
type EnrichSummary struct {
	Enriched int
	Skipped  int
}

type labeledEntry struct {
	id     int64
	labels llm.TaxonomyLabels
}

// Run labels up to limit unlabeled entries, strictly one at a time with
// an idle delay between entries to stay inside API etiquette. Labels
// are committed in transaction batches; cancellation flushes the
// in-flight batch before returning, so paid-for work is never lost.
// limit at or below zero takes the store's default backlog.
func (e *Enricher) Run(ctx context.Context, limit int) (EnrichSummary, error) {
	var summary EnrichSummary

	pending, err := e.store.WithoutTaxonomy(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("listing entries without taxonomy: %w", err)
	}
	if len(pending) == 0 {
		return summary, nil
	}
	e.log.Info("enriching taxonomy", zap.Int("pending", len(pending)))

	var batch []labeledEntry
	for i, entry := range pending {
		if err := ctx.Err(); err != nil {
			e.flush(context.Background(), &summary, &batch)
			return summary, err
		}
		if i > 0 {
			if err := e.sleep(ctx, enrichIdleDelay); err != nil {
				e.flush(context.Background(), &summary, &batch)
				return summary, err
			}
		}

		labels, ok := e.labelsFor(ctx, entry)
		if !ok {
			e.log.Warn("entry could not be labeled, skipping",
				zap.Int64("id", entry.ID), zap.String("title", entry.Title))
			summary.Skipped++
			continue
		}
		batch = append(batch, labeledEntry{id: entry.ID, labels: labels})
		if len(batch) >= enrichBatchSize {
			e.flush(ctx, &summary, &batch)
		}
	}
	e.flush(ctx, &summary, &batch)

	e.log.Info("taxonomy enrichment finished",
		zap.Int("enriched", summary.Enriched), zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// flush commits the pending batch. A failed commit skips the batch and
// the run continues; earlier batches are already durable.
func (e *Enricher) flush(ctx context.Context, summary *EnrichSummary, batch *[]labeledEntry) {
	if len(*batch) == 0 {
		return
	}
	if err := e.applyTaxonomy(ctx, *batch); err != nil {
		e.log.Warn("storing taxonomy batch failed, skipping",
			zap.Int("entries", len(*batch)), zap.Error(err))
		summary.Skipped += len(*batch)
	} else {
		summary.Enriched += len(*batch)
	}
	*batch = (*batch)[:0]
}

func (e *Enricher) applyTaxonomy(ctx context.Context, batch []labeledEntry) error {
	tx, err := e.store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, le := range batch {
		err := e.store.UpdateTaxonomy(ctx, tx, le.id,
			le.labels.Domain, le.labels.Field, le.labels.Subfield, le.labels.Topic)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// labelsFor derives taxonomy labels for one entry. The vote over
// matching papers wins when any paper carries topic annotations; the
// classifier fallback handles problems nothing is published about.
func (e *Enricher) labelsFor(ctx context.Context, entry types.GapEntry) (llm.TaxonomyLabels, bool) {
	papers := e.searchWithRetry(ctx, entry)
	if labels, ok := voteTaxonomy(papers); ok {
		e.log.Debug("labeled by paper vote",
			zap.Int64("id", entry.ID), zap.String("field", labels.Field))
		return labels, true
	}
	if e.classifier == nil {
		return llm.TaxonomyLabels{}, false
	}
	if labels := e.classifier.ClassifyGapTaxonomy(ctx, entry); labels != nil {
		e.log.Debug("labeled by classifier",
			zap.Int64("id", entry.ID), zap.String("field", labels.Field))
		return *labels, true
	}
	return llm.TaxonomyLabels{}, false
}

func (e *Enricher) searchWithRetry(ctx context.Context, entry types.GapEntry) []types.Paper {
	for attempt := 0; ; attempt++ {
		papers := e.searcher.SearchTitleAbstract(ctx, entry.Title, enrichSearchLimit)
		if len(papers) > 0 {
			return papers
		}
		if attempt >= len(enrichRetryDelays) {
			return nil
		}
		if err := e.sleep(ctx, enrichRetryDelays[attempt]); err != nil {
			return nil
		}
	}
}

// voteTaxonomy runs the same weighted vote that classifies researchers
// over the papers matching a gap entry.
func voteTaxonomy(papers []types.Paper) (llm.TaxonomyLabels, bool) {
	c := novelty.Classify(papers)
	if c.Empty() {
		return llm.TaxonomyLabels{}, false
	}
	return llm.TaxonomyLabels{
		Domain:   c.PrimaryDomain,
		Field:    c.PrimaryField,
		Subfield: c.PrimarySubfield,
		Topic:    c.PrimaryTopic,
	}, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
