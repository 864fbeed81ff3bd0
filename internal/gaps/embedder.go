// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/gapstore"
	"github.com/pdiddy/research-advisor/pkg/types"
)

const embedBatchSize = 100

// BatchEmbedder embeds several texts in one request.
type BatchEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BackfillSummary reports the outcome of an embedding backfill run.
type BackfillSummary struct {
	Embedded int
	Skipped  int
}

// BackfillEmbeddings embeds stored entries that lack a vector, in
// batches committed one transaction each. A failed batch is skipped, not
// fatal; committed batches survive regardless of later failures. limit
// at or below zero takes the store's default backlog.
func BackfillEmbeddings(ctx context.Context, store *gapstore.Store, embedder BatchEmbedder, limit int, log *zap.Logger) (BackfillSummary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var summary BackfillSummary

	pending, err := store.WithoutEmbedding(ctx, limit)
	if err != nil {
		return summary, fmt.Errorf("listing entries without embeddings: %w", err)
	}
	if len(pending) == 0 {
		return summary, nil
	}
	log.Info("backfilling embeddings", zap.Int("pending", len(pending)))

	for start := 0; start < len(pending); start += embedBatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}

		// The embedder drops blank inputs from its output, which would
		// desync vectors from entries. Filter them out up front.
		batch := make([]types.GapEntry, 0, end-start)
		texts := make([]string, 0, end-start)
		for _, e := range pending[start:end] {
			text := entryText(e)
			if text == "" {
				summary.Skipped++
				continue
			}
			batch = append(batch, e)
			texts = append(texts, text)
		}
		if len(batch) == 0 {
			continue
		}

		vectors, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			log.Warn("embedding batch failed, skipping",
				zap.Int("entries", len(batch)), zap.Error(err))
			summary.Skipped += len(batch)
			continue
		}
		if len(vectors) != len(batch) {
			log.Warn("embedding batch returned wrong vector count, skipping",
				zap.Int("entries", len(batch)), zap.Int("vectors", len(vectors)))
			summary.Skipped += len(batch)
			continue
		}

		if err := applyEmbeddings(ctx, store, batch, vectors); err != nil {
			log.Warn("storing embedding batch failed, skipping",
				zap.Int("entries", len(batch)), zap.Error(err))
			summary.Skipped += len(batch)
			continue
		}
		summary.Embedded += len(batch)
	}

	log.Info("embedding backfill finished",
		zap.Int("embedded", summary.Embedded), zap.Int("skipped", summary.Skipped))
	return summary, nil
}

func applyEmbeddings(ctx context.Context, store *gapstore.Store, batch []types.GapEntry, vectors [][]float32) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for i, e := range batch {
		if err := store.UpdateEmbedding(ctx, tx, e.ID, vectors[i]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// entryText is the text an entry is embedded and searched by.
func entryText(e types.GapEntry) string {
	return strings.TrimSpace(e.Title + " " + e.Description)
}
