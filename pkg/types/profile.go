// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// ResearchProfile describes the researcher whose question is being
// assessed: what they want to know and what they bring to it.
type ResearchProfile struct {
	// ResearchQuestion is the question under assessment.
	ResearchQuestion string `json:"research_question" yaml:"research_question"`

	// ProblemDescription is free-text context around the question.
	ProblemDescription string `json:"problem_description,omitempty" yaml:"problem_description,omitempty"`

	// Skills, ExpertiseAreas, Motivations, and Interests are the
	// researcher's self-reported attributes.
	Skills         []string `json:"skills,omitempty" yaml:"skills,omitempty"`
	ExpertiseAreas []string `json:"expertise_areas,omitempty" yaml:"expertise_areas,omitempty"`
	Motivations    []string `json:"motivations,omitempty" yaml:"motivations,omitempty"`
	Interests      []string `json:"interests,omitempty" yaml:"interests,omitempty"`
}

// QueryText builds the retrieval query for gap matching: the question plus
// skills, expertise, and motivations, space-joined.
func (p ResearchProfile) QueryText() string {
	parts := []string{p.ResearchQuestion}
	if len(p.Skills) > 0 {
		parts = append(parts, strings.Join(p.Skills, " "))
	}
	if len(p.ExpertiseAreas) > 0 {
		parts = append(parts, strings.Join(p.ExpertiseAreas, " "))
	}
	if len(p.Motivations) > 0 {
		parts = append(parts, strings.Join(p.Motivations, " "))
	}
	joined := strings.TrimSpace(strings.Join(parts, " "))
	if joined == "" {
		return p.ResearchQuestion
	}
	return joined
}

// MergeProfiles combines profiles collected from several inputs. The first
// non-empty research question wins; list fields are concatenated with
// duplicates dropped, preserving first-seen order.
func MergeProfiles(profiles ...ResearchProfile) ResearchProfile {
	var merged ResearchProfile
	for _, p := range profiles {
		if merged.ResearchQuestion == "" {
			merged.ResearchQuestion = p.ResearchQuestion
		}
		if merged.ProblemDescription == "" {
			merged.ProblemDescription = p.ProblemDescription
		}
		merged.Skills = appendUnique(merged.Skills, p.Skills)
		merged.ExpertiseAreas = appendUnique(merged.ExpertiseAreas, p.ExpertiseAreas)
		merged.Motivations = appendUnique(merged.Motivations, p.Motivations)
		merged.Interests = appendUnique(merged.Interests, p.Interests)
	}
	return merged
}

func appendUnique(dst, src []string) []string {
	for _, s := range src {
		found := false
		for _, d := range dst {
			if d == s {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, s)
		}
	}
	return dst
}
