// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// maxQueryVariants caps the planner's output.
const maxQueryVariants = 6

// buildQueryVariants derives search query variants from a research question
// and its decomposition. The first variant is the niche one: a short phrase
// of the most specific concepts, which title/abstract search rewards with
// precision. Later variants broaden so at least one of them can return
// results for sparsely-published topics.
func buildQueryVariants(question string, dec types.ResearchDecomposition, broadTerms, topicVocab []string) []string {
	question = strings.TrimSpace(question)
	concepts := usableConcepts(dec.KeyConcepts)

	var variants []string
	if niche := nicheQuery(concepts, broadTerms, topicVocab); niche != "" {
		variants = append(variants, niche)
	}
	if len(concepts) > 0 {
		variants = append(variants, strings.Join(firstN(concepts, 6), " "))
	}
	if len(dec.CoreQuestions) > 0 {
		if q := shortenQuery(dec.CoreQuestions[0], 10); q != "" {
			variants = append(variants, q)
		}
	}
	if q := shortenQuery(question, 8); q != "" {
		variants = append(variants, q)
	}
	if len(concepts) >= 2 {
		variants = append(variants, strings.Join(firstN(concepts, 3), " "))
	}

	variants = dedupeStrings(variants)
	if len(variants) > maxQueryVariants {
		variants = variants[:maxQueryVariants]
	}
	if len(variants) == 0 {
		variants = []string{question}
	}
	return variants
}

// nicheQuery builds the highest-precision variant from up to three specific
// concepts, anchored by a topic-vocabulary word when one already appears
// inside a concept. Capped at four tokens so the phrase stays a phrase.
func nicheQuery(concepts, broadTerms, topicVocab []string) string {
	var specific []string
	for _, c := range concepts {
		if len(specific) == 3 {
			break
		}
		if isSpecificConcept(c, broadTerms) {
			specific = append(specific, c)
		}
	}
	if len(specific) == 0 {
		return ""
	}
	phrase := strings.Join(specific, " ")

	if term := topicAnchor(concepts, topicVocab); term != "" && !strings.Contains(strings.ToLower(phrase), term) {
		phrase += " " + term
	}

	tokens := strings.Fields(phrase)
	if len(tokens) > 4 {
		tokens = tokens[:4]
	}
	return strings.Join(tokens, " ")
}

// isSpecificConcept reports whether a concept is precise enough to anchor
// the niche query. Capitalized terms (species names, place names, named
// methods) always qualify; lower-case terms qualify unless they sit in the
// broad-term stoplist.
func isSpecificConcept(c string, broadTerms []string) bool {
	r, _ := utf8.DecodeRuneInString(c)
	if utf8.RuneCountInString(c) < 3 {
		return false
	}
	if unicode.IsUpper(r) {
		return true
	}
	lower := strings.ToLower(c)
	for _, t := range broadTerms {
		if lower == t {
			return false
		}
	}
	return true
}

// topicAnchor returns the first topic-vocabulary word that occurs inside
// any concept, or "" when none does.
func topicAnchor(concepts, topicVocab []string) string {
	for _, v := range topicVocab {
		for _, c := range concepts {
			if strings.Contains(strings.ToLower(c), v) {
				return v
			}
		}
	}
	return ""
}

// shortenQuery returns the first maxWords words of q, or the trimmed q when
// it is already short enough.
func shortenQuery(q string, maxWords int) string {
	words := strings.Fields(q)
	if len(words) <= maxWords {
		return strings.TrimSpace(q)
	}
	return strings.Join(words[:maxWords], " ")
}

// usableConcepts trims the decomposition's key concepts and drops tokens
// too short to search on.
func usableConcepts(concepts []string) []string {
	var out []string
	for _, c := range concepts {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) >= 3 {
			out = append(out, c)
		}
	}
	return out
}

func firstN(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// dedupeStrings drops exact duplicates, preserving first-seen order.
func dedupeStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
