// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package novelty

import "github.com/pdiddy/research-advisor/pkg/types"

// Partition splits the evidence set into proximity tiers relative to the
// researcher's classification, closest first, each non-empty tier carrying
// its own impact statistics. A paper in the researcher's own topic is
// direct competition; a cross-field paper is background awareness.
func Partition(papers []types.Paper, c types.ResearcherClassification) []types.TierEvidence {
	buckets := make(map[types.ProximityTier][]types.Paper)
	for _, p := range papers {
		tier := tierFor(p, c)
		buckets[tier] = append(buckets[tier], p)
	}

	var out []types.TierEvidence
	for _, tier := range types.ProximityTierOrder {
		tierPapers := buckets[tier]
		if len(tierPapers) == 0 {
			continue
		}
		out = append(out, types.TierEvidence{
			Tier:   tier,
			Papers: tierPapers,
			Stats:  Stats(tierPapers),
		})
	}
	return out
}

// tierFor assigns the first matching tier. Empty strings never match, so
// a paper without topic data, or any paper when the classification is
// empty, lands in cross_field.
func tierFor(p types.Paper, c types.ResearcherClassification) types.ProximityTier {
	t := p.PrimaryTopic
	if t == nil || c.Empty() {
		return types.TierCrossField
	}
	switch {
	case t.Topic != "" && t.Topic == c.PrimaryTopic:
		return types.TierSameTopic
	case t.Subfield != "" && t.Subfield == c.PrimarySubfield:
		return types.TierSameSubfield
	case t.Field != "" && t.Field == c.PrimaryField:
		return types.TierSameField
	default:
		return types.TierCrossField
	}
}
