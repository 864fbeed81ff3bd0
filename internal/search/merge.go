// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// mergePair concatenates two result lists, first list first, deduplicating
// by paper id and stopping at limit. Papers that do not yet carry a
// retrieval source are tagged with the source of the list they arrived in.
func mergePair(first, second []types.Paper, firstSource, secondSource types.RetrievalSource, limit int) []types.Paper {
	seen := make(map[string]struct{}, len(first)+len(second))
	var merged []types.Paper

	appendFrom := func(papers []types.Paper, source types.RetrievalSource) {
		for _, p := range papers {
			if limit > 0 && len(merged) == limit {
				return
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			if p.RetrievalSource == "" {
				p.RetrievalSource = source
			}
			merged = append(merged, p)
		}
	}
	appendFrom(first, firstSource)
	appendFrom(second, secondSource)
	return merged
}

// mergeRanked folds per-variant result lists into one ranking. A paper
// returned by more variants outranks a paper returned by fewer; within the
// same count the higher service relevance wins, and full ties keep
// first-seen order. The kept entry carries the maximum relevance observed
// across variants.
func mergeRanked(lists [][]types.Paper, limit int) []types.Paper {
	type entry struct {
		paper types.Paper
		hits  int
	}
	index := make(map[string]*entry)
	var entries []*entry

	for _, list := range lists {
		for _, p := range list {
			e, ok := index[p.ID]
			if !ok {
				e = &entry{paper: p}
				index[p.ID] = e
				entries = append(entries, e)
			}
			e.hits++
			if p.RelevanceScore != nil {
				if e.paper.RelevanceScore == nil || *p.RelevanceScore > *e.paper.RelevanceScore {
					e.paper.RelevanceScore = p.RelevanceScore
				}
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].hits != entries[j].hits {
			return entries[i].hits > entries[j].hits
		}
		return relevanceOf(entries[i].paper) > relevanceOf(entries[j].paper)
	})

	n := len(entries)
	if limit > 0 && n > limit {
		n = limit
	}
	merged := make([]types.Paper, 0, n)
	for _, e := range entries[:n] {
		merged = append(merged, e.paper)
	}
	return merged
}

func relevanceOf(p types.Paper) float64 {
	if p.RelevanceScore != nil {
		return *p.RelevanceScore
	}
	return 0
}
