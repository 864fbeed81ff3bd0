// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gapstore

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// SeedFile is the on-disk representation of a gap catalog seed. Shipped
// seeds let a fresh install assess pivots before any scraper has run.
type SeedFile struct {
	Entries []types.GapEntry `yaml:"entries"`
}

// ImportSummary reports what an import run did.
type ImportSummary struct {
	Imported int
	Skipped  int
}

// ImportSeed upserts every entry of a YAML seed catalog. Entries that
// fail to persist are skipped, not fatal, so one bad row cannot block a
// whole catalog.
func (s *Store) ImportSeed(ctx context.Context, path string) (ImportSummary, error) {
	var summary ImportSummary

	data, err := os.ReadFile(path)
	if err != nil {
		return summary, fmt.Errorf("reading seed file: %w", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return summary, fmt.Errorf("parsing seed file: %w", err)
	}

	for i := range seed.Entries {
		if err := s.Upsert(ctx, &seed.Entries[i]); err != nil {
			s.log.Warn("skipping seed entry",
				zap.String("title", seed.Entries[i].Title),
				zap.Error(err))
			summary.Skipped++
			continue
		}
		summary.Imported++
	}
	return summary, nil
}
