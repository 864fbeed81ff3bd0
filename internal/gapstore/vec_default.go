// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !(sqlite_vec && cgo)

package gapstore

import (
	"context"
	"sort"

	"github.com/pdiddy/research-advisor/internal/embed"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// SimilarToEmbedding returns the entries closest to the query vector by
// cosine distance, nearest first. Without the sqlite_vec build tag the
// distance is computed in Go over the decoded blobs, which is fine at
// catalog scale (thousands of rows, not millions).
func (s *Store) SimilarToEmbedding(ctx context.Context, query []float32, limit int) ([]types.GapEntry, error) {
	entries, err := s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE embedding IS NOT NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}

	distances := make([]float64, len(entries))
	for i := range entries {
		// Degenerate vectors get cosine 0, i.e. the worst distance.
		distances[i] = 1 - embed.Cosine(query, entries[i].Embedding)
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return distances[idx[a]] < distances[idx[b]]
	})

	if limit <= 0 || limit > len(idx) {
		limit = len(idx)
	}
	out := make([]types.GapEntry, 0, limit)
	for _, i := range idx[:limit] {
		out = append(out, entries[i])
	}
	return out, nil
}
