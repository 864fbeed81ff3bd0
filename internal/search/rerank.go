// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/research-advisor/pkg/types"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// phraseBonus is the flat score added when a multiword concept appears
	// verbatim in a paper's title or abstract.
	phraseBonus = 2.0

	// minPhraseLen keeps trivial phrases from triggering the bonus.
	minPhraseLen = 6

	maxRerankConcepts = 12
	maxRerankTerms    = 20
	maxPhraseBoosts   = 8

	// minTermLen drops tokens too short to discriminate between papers.
	minTermLen = 4
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9][a-zA-Z0-9\-]{2,}`)

// rerankLocal reorders papers by lexical relevance to the question,
// scoring each title+abstract with BM25 over terms drawn from the
// decomposition's key concepts and adding a flat bonus for verbatim
// multiword concept matches. Document frequencies come from the result set
// itself. Papers are mutated in place: every paper gets a BM25Score, the
// slice is sorted by it descending, then truncated to limit. An empty term
// set degrades to plain truncation.
func rerankLocal(papers []types.Paper, question string, dec types.ResearchDecomposition, broadTerms []string, limit int) []types.Paper {
	if len(papers) == 0 {
		return papers
	}

	concepts := firstN(dec.KeyConcepts, maxRerankConcepts)
	phrases := phraseTerms(concepts)
	terms := conceptTerms(concepts, broadTerms)
	if len(terms) == 0 {
		terms = filterTerms(tokenize(question), broadTerms)
	}
	if len(terms) == 0 {
		return truncatePapers(papers, limit)
	}

	n := float64(len(papers))
	docTokens := make([][]string, len(papers))
	docText := make([]string, len(papers))
	var totalLen float64
	for i, p := range papers {
		text := strings.ToLower(p.Title + " " + p.Abstract)
		docText[i] = text
		docTokens[i] = tokenize(text)
		dl := len(docTokens[i])
		if dl == 0 {
			dl = 1
		}
		totalLen += float64(dl)
	}
	avgdl := totalLen / n
	if avgdl <= 0 {
		avgdl = 1.0
	}

	// Document frequency per query term.
	df := make(map[string]float64, len(terms))
	for _, tokens := range docTokens {
		present := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			present[t] = struct{}{}
		}
		for _, term := range terms {
			if _, ok := present[term]; ok {
				df[term]++
			}
		}
	}

	for i := range papers {
		tf := make(map[string]float64, len(docTokens[i]))
		for _, t := range docTokens[i] {
			tf[t]++
		}
		dl := float64(len(docTokens[i]))
		if dl == 0 {
			dl = 1
		}

		var score float64
		for _, term := range terms {
			freq := tf[term]
			if freq == 0 {
				continue
			}
			idf := (n - df[term] + 0.5) / (df[term] + 0.5)
			if idf < 0 {
				idf = 0
			}
			score += idf * (freq * (bm25K1 + 1)) / (freq + bm25K1*(1-bm25B+bm25B*dl/avgdl))
		}
		for _, phrase := range phrases {
			if len(phrase) >= minPhraseLen && strings.Contains(docText[i], phrase) {
				score += phraseBonus
			}
		}

		s := score
		papers[i].BM25Score = &s
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return *papers[i].BM25Score > *papers[j].BM25Score
	})
	return truncatePapers(papers, limit)
}

// phraseTerms collects lowered multiword concepts for the verbatim bonus.
func phraseTerms(concepts []string) []string {
	var phrases []string
	for _, c := range concepts {
		if len(phrases) == maxPhraseBoosts {
			break
		}
		if strings.Contains(strings.TrimSpace(c), " ") {
			phrases = append(phrases, strings.ToLower(c))
		}
	}
	return phrases
}

// conceptTerms tokenizes the specific key concepts into BM25 query terms.
func conceptTerms(concepts, broadTerms []string) []string {
	var tokens []string
	for _, c := range concepts {
		if !isSpecificConcept(c, broadTerms) {
			continue
		}
		tokens = append(tokens, tokenize(c)...)
	}
	return filterTerms(tokens, broadTerms)
}

// filterTerms drops short and stoplisted tokens, dedupes preserving order,
// and caps the term set.
func filterTerms(tokens, broadTerms []string) []string {
	stop := make(map[string]struct{}, len(broadTerms))
	for _, t := range broadTerms {
		stop[t] = struct{}{}
	}

	seen := make(map[string]struct{}, len(tokens))
	var terms []string
	for _, t := range tokens {
		if len(terms) == maxRerankTerms {
			break
		}
		if len(t) < minTermLen {
			continue
		}
		if _, stopped := stop[t]; stopped {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// tokenize lowers the text and extracts alphanumeric tokens of three or
// more characters (hyphens allowed after the first character).
func tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

func truncatePapers(papers []types.Paper, limit int) []types.Paper {
	if limit > 0 && len(papers) > limit {
		return papers[:limit]
	}
	return papers
}

// sortStableByScore orders idx by descending score, keeping input order
// for ties.
func sortStableByScore(idx []int, scores []float64) {
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
}
