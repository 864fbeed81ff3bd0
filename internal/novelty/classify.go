// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novelty

import (
	"math"
	"sort"

	"github.com/pdiddy/research-advisor/pkg/types"
)

const maxSecondaryTopics = 5

// ballot tallies weighted votes for string values, remembering insertion
// order so ties resolve to the first value seen.
type ballot struct {
	weights map[string]float64
	order   []string
}

func (b *ballot) add(value string, weight float64) {
	if value == "" {
		return
	}
	if b.weights == nil {
		b.weights = make(map[string]float64)
	}
	if _, seen := b.weights[value]; !seen {
		b.order = append(b.order, value)
	}
	b.weights[value] += weight
}

func (b *ballot) winner() string {
	best, bestWeight := "", math.Inf(-1)
	for _, v := range b.order {
		if b.weights[v] > bestWeight {
			best, bestWeight = v, b.weights[v]
		}
	}
	return best
}

// ranked returns all values by descending weight, insertion order breaking
// ties.
func (b *ballot) ranked() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	sort.SliceStable(out, func(i, j int) bool {
		return b.weights[out[i]] > b.weights[out[j]]
	})
	return out
}

// Classify infers the researcher's position in the topic taxonomy by
// weighted voting over the retrieved papers' primary topic annotations.
// Each annotated paper votes on every axis its annotation fills in, with
// the classifier confidence as the vote weight (1.0 when the source
// reported none). Papers without topic data contribute nothing.
func Classify(papers []types.Paper) types.ResearcherClassification {
	var domains, fields, subfields, topics ballot
	annotated := 0
	for _, p := range papers {
		if p.PrimaryTopic == nil {
			continue
		}
		annotated++
		weight := 1.0
		if p.PrimaryTopic.Score != nil {
			weight = *p.PrimaryTopic.Score
		}
		domains.add(p.PrimaryTopic.Domain, weight)
		fields.add(p.PrimaryTopic.Field, weight)
		subfields.add(p.PrimaryTopic.Subfield, weight)
		topics.add(p.PrimaryTopic.Topic, weight)
	}

	c := types.ResearcherClassification{
		PrimaryDomain:   domains.winner(),
		PrimaryField:    fields.winner(),
		PrimarySubfield: subfields.winner(),
		PrimaryTopic:    topics.winner(),
	}
	for _, topic := range topics.ranked() {
		if topic == c.PrimaryTopic {
			continue
		}
		c.SecondaryTopics = append(c.SecondaryTopics, topic)
		if len(c.SecondaryTopics) == maxSecondaryTopics {
			break
		}
	}
	if annotated > 0 {
		diversity := math.Round(float64(len(subfields.order))/float64(annotated)*100) / 100
		c.TopicDiversity = &diversity
	}
	return c
}
