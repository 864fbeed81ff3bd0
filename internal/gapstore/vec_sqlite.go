// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build sqlite_vec && cgo

package gapstore

import (
	"context"

	vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// Registers the sqlite-vec extension on every new connection so
// vec_distance_cosine is available to queries.
func init() {
	vec.Auto()
}

// SimilarToEmbedding returns the entries closest to the query vector by
// cosine distance, nearest first, computed inside SQLite by sqlite-vec.
func (s *Store) SimilarToEmbedding(ctx context.Context, query []float32, limit int) ([]types.GapEntry, error) {
	if limit <= 0 {
		limit = defaultBacklogLimit
	}
	return s.queryEntries(ctx,
		`SELECT `+gapColumns+` FROM gaps WHERE embedding IS NOT NULL
		 ORDER BY vec_distance_cosine(embedding, ?) LIMIT ?`,
		encodeEmbedding(query), limit)
}
