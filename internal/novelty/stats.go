// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novelty

import (
	"sort"

	"github.com/pdiddy/research-advisor/pkg/types"
)

const (
	defaultFWCIHigh = 2.2
	defaultFWCILow  = 1.2

	maxCitations      = 10
	weakEvidenceScore = 1.2
	fallbackCitations = 3
)

// Stats aggregates the impact metrics of a paper set. Papers missing a
// metric are left out of that metric, not counted as zero.
func Stats(papers []types.Paper) types.FWCIStats {
	var fwcis, percentiles, mins, maxs []float64
	for _, p := range papers {
		if p.FWCI != nil {
			fwcis = append(fwcis, *p.FWCI)
		}
		if p.CitationNormalizedPercentile != nil {
			percentiles = append(percentiles, *p.CitationNormalizedPercentile)
		}
		if p.CitedByPercentileYearMin != nil {
			mins = append(mins, *p.CitedByPercentileYearMin)
		}
		if p.CitedByPercentileYearMax != nil {
			maxs = append(maxs, *p.CitedByPercentileYearMax)
		}
	}

	stats := types.FWCIStats{PapersWithFWCI: len(fwcis)}
	if len(fwcis) > 0 {
		m := median(fwcis)
		stats.MedianFWCI = &m
	}
	if len(percentiles) > 0 {
		m := mean(percentiles)
		stats.FWCIPercentile = &m
	}
	if len(mins) > 0 {
		m := minOf(mins)
		stats.CitationPercentileMin = &m
	}
	if len(maxs) > 0 {
		m := maxOf(maxs)
		stats.CitationPercentileMax = &m
	}
	return stats
}

// ImpactLevelFor buckets a median impact score against the configured
// thresholds. Both boundary values bucket as MEDIUM; an absent median is
// UNCERTAIN, not LOW.
func ImpactLevelFor(median *float64, cfg types.NoveltyConfig) types.ImpactLevel {
	if median == nil {
		return types.ImpactUncertain
	}
	high, low := cfg.FWCIHighThreshold, cfg.FWCILowThreshold
	if high <= 0 {
		high = defaultFWCIHigh
	}
	if low <= 0 {
		low = defaultFWCILow
	}
	switch {
	case *median > high:
		return types.ImpactHigh
	case *median < low:
		return types.ImpactLow
	default:
		return types.ImpactMedium
	}
}

// SelectCitations picks the evidence citations from the reranked paper
// set: the strongest ten by local rank, minus papers the rerank scored as
// weak. When every candidate is weak the three least weak are kept, so a
// verdict never ships without its evidence.
func SelectCitations(papers []types.Paper) []types.Citation {
	if len(papers) == 0 {
		return nil
	}
	head := papers
	if len(head) > maxCitations {
		head = head[:maxCitations]
	}

	kept := make([]types.Paper, 0, len(head))
	for _, p := range head {
		if p.BM25Score != nil && *p.BM25Score < weakEvidenceScore {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		// Unscored papers are always kept, so an empty cut means every
		// candidate carries a score.
		ranked := make([]types.Paper, len(head))
		copy(ranked, head)
		sort.SliceStable(ranked, func(i, j int) bool {
			return *ranked[i].BM25Score > *ranked[j].BM25Score
		})
		kept = ranked
		if len(kept) > fallbackCitations {
			kept = kept[:fallbackCitations]
		}
	}

	out := make([]types.Citation, 0, len(kept))
	for _, p := range kept {
		out = append(out, toCitation(p))
	}
	return out
}

func toCitation(p types.Paper) types.Citation {
	c := types.Citation{
		Title:   p.Title,
		Authors: p.Authors,
		DOI:     p.DOI,
		FWCI:    p.FWCI,
	}
	if p.Year != 0 {
		year := p.Year
		c.Year = &year
	}
	if p.DOI != "" {
		c.URL = "https://doi.org/" + p.DOI
	}
	return c
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
