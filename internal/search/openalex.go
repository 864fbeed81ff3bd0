// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/httputil"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// openAlexAPIBase is the OpenAlex API root. Declared as a var so tests can
// substitute an httptest server.
var openAlexAPIBase = "https://api.openalex.org"

const (
	// maxFilterQueryLen caps the sanitized filter query; the API rejects
	// longer filter values.
	maxFilterQueryLen = 80

	// semanticQueryMax caps the free-text semantic query length.
	semanticQueryMax = 10000

	// semanticCountMax is the API's per-call ceiling for semantic results.
	semanticCountMax = 100

	defaultPerPage = 20
	maxPerPage     = 200
)

// Client queries the OpenAlex API in three modes: full-text keyword search,
// title/abstract filter search, and paid semantic search. Retrieval
// failures are logged and surface as empty result sets, never as errors;
// the caller's fallback cascade handles absence.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger

	// email joins the polite pool; sent as the mailto parameter.
	email string
	// apiKey unlocks semantic search and the budget endpoint.
	apiKey    string
	userAgent string
	perPage   int
}

// NewClient builds a search client from configuration. A nil logger
// disables logging.
func NewClient(cfg types.SearchConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		email:      cfg.Email,
		apiKey:     cfg.APIKey,
		userAgent:  cfg.UserAgent,
		perPage:    perPage,
	}
}

// SearchPapers runs a full-text keyword search over works. Broad recall;
// relevance ranking is the service's own.
func (c *Client) SearchPapers(ctx context.Context, query string, limit int) []types.Paper {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(c.pageSize(limit))},
	}
	if c.email != "" {
		params.Set("mailto", c.email)
	}

	var oar openAlexResponse
	if err := c.getJSON(ctx, openAlexAPIBase+"/works?"+params.Encode(), &oar); err != nil {
		c.log.Warn("full-text search failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	return normalizeWorks(oar.Results)
}

// SearchTitleAbstract runs a title/abstract filter search. Higher precision
// than full-text for phrase-like queries. The query is sanitized for the
// filter syntax; a query that sanitizes to nothing returns no results.
func (c *Client) SearchTitleAbstract(ctx context.Context, query string, limit int) []types.Paper {
	sanitized := sanitizeFilterQuery(query)
	if sanitized == "" {
		return nil
	}

	params := url.Values{
		"filter":   {"title_and_abstract.search:" + sanitized},
		"per_page": {strconv.Itoa(c.pageSize(limit))},
	}
	if c.email != "" {
		params.Set("mailto", c.email)
	}

	var oar openAlexResponse
	if err := c.getJSON(ctx, openAlexAPIBase+"/works?"+params.Encode(), &oar); err != nil {
		c.log.Warn("title/abstract search failed", zap.String("query", sanitized), zap.Error(err))
		return nil
	}
	return normalizeWorks(oar.Results)
}

// SemanticSearch runs the paid natural-language search. Each call spends
// from the daily budget. Without an API key it degrades to SearchPapers.
func (c *Client) SemanticSearch(ctx context.Context, query string, limit int) []types.Paper {
	if c.apiKey == "" {
		c.log.Debug("semantic search requested without API key, using full-text search")
		return c.SearchPapers(ctx, query, limit)
	}
	if len(query) > semanticQueryMax {
		query = query[:semanticQueryMax]
	}

	count := c.pageSize(limit)
	if count > semanticCountMax {
		count = semanticCountMax
	}
	params := url.Values{
		"query":   {query},
		"count":   {strconv.Itoa(count)},
		"api_key": {c.apiKey},
	}

	var oar openAlexResponse
	if err := c.getJSON(ctx, openAlexAPIBase+"/find/works?"+params.Encode(), &oar); err != nil {
		c.log.Warn("semantic search failed", zap.Error(err))
		return nil
	}
	return normalizeWorks(oar.Results)
}

// RemainingBudget reports the remaining daily semantic-search budget in
// USD. It returns nil when no API key is configured or the endpoint cannot
// be read; callers treat nil as an unknown budget and keep the paid path
// closed.
func (c *Client) RemainingBudget(ctx context.Context) *float64 {
	if c.apiKey == "" {
		return nil
	}

	params := url.Values{"api_key": {c.apiKey}}
	var rlr openAlexRateLimitResponse
	if err := c.getJSON(ctx, openAlexAPIBase+"/rate-limit?"+params.Encode(), &rlr); err != nil {
		c.log.Warn("budget check failed", zap.Error(err))
		return nil
	}
	return rlr.RateLimit.DailyRemainingUSD
}

// getJSON issues a GET with bounded retry and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return fmt.Errorf("search API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("search API returned HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing search API response: %w", err)
	}
	return nil
}

// pageSize resolves a caller-supplied limit against the configured default
// and the API ceiling.
func (c *Client) pageSize(limit int) int {
	if limit <= 0 {
		limit = c.perPage
	}
	if limit > maxPerPage {
		limit = maxPerPage
	}
	return limit
}

// sanitizeFilterQuery prepares free text for the filter query syntax.
// Colons would be parsed as filter separators, so they become spaces along
// with any line breaks, then runs of whitespace collapse. Long queries are
// cut at the last word boundary under the length cap.
func sanitizeFilterQuery(q string) string {
	q = strings.NewReplacer(":", " ", "\n", " ", "\r", " ", "\t", " ").Replace(q)
	q = strings.Join(strings.Fields(q), " ")
	if len(q) > maxFilterQueryLen {
		q = q[:maxFilterQueryLen]
		if i := strings.LastIndexByte(q, ' '); i > 0 {
			q = q[:i]
		}
	}
	return q
}

func normalizeWorks(works []openAlexWork) []types.Paper {
	if len(works) == 0 {
		return nil
	}
	papers := make([]types.Paper, 0, len(works))
	for _, w := range works {
		papers = append(papers, normalizeWork(w))
	}
	return papers
}

// normalizeWork reduces a raw work to the fixed Paper schema.
func normalizeWork(w openAlexWork) types.Paper {
	p := types.Paper{
		ID:             w.ID,
		Title:          w.Title,
		Abstract:       decodeAbstract(w.AbstractInvertedIndex),
		Year:           w.PublicationYear,
		CitedByCount:   w.CitedByCount,
		FWCI:           w.FWCI,
		RelevanceScore: w.RelevanceScore,
	}
	if p.Title == "" {
		p.Title = w.DisplayName
	}

	// The API reports DOIs in resolver form; store the bare DOI.
	if w.DOI != "" {
		p.DOI = strings.TrimPrefix(w.DOI, "https://doi.org/")
	}

	if w.CitationNormalizedPercentile != nil {
		p.CitationNormalizedPercentile = w.CitationNormalizedPercentile.Value
	}
	if w.CitedByPercentileYear != nil {
		p.CitedByPercentileYearMin = w.CitedByPercentileYear.Min
		p.CitedByPercentileYearMax = w.CitedByPercentileYear.Max
	}

	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName != "" {
			p.Authors = append(p.Authors, authorship.Author.DisplayName)
		}
	}

	concepts := w.Concepts
	if len(concepts) > 5 {
		concepts = concepts[:5]
	}
	for _, cpt := range concepts {
		p.Concepts = append(p.Concepts, types.WeightedTerm{Name: cpt.DisplayName, Score: cpt.Score})
	}

	keywords := w.Keywords
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}
	for _, kw := range keywords {
		name := kw.Keyword
		if name == "" {
			name = kw.DisplayName
		}
		p.Keywords = append(p.Keywords, types.WeightedTerm{Name: name, Score: kw.Score})
	}

	p.PrimaryTopic = extractTopic(w.PrimaryTopic)
	topics := w.Topics
	if len(topics) > 3 {
		topics = topics[:3]
	}
	for i := range topics {
		if t := extractTopic(&topics[i]); t != nil {
			p.Topics = append(p.Topics, *t)
		}
	}

	return p
}

// extractTopic flattens a topic annotation into the four-level taxonomy.
// Annotations without a display name carry no signal and normalize to nil.
func extractTopic(t *openAlexTopic) *types.TopicTaxonomy {
	if t == nil || t.DisplayName == "" {
		return nil
	}
	return &types.TopicTaxonomy{
		Topic:    t.DisplayName,
		TopicID:  t.ID,
		Subfield: t.Subfield.DisplayName,
		Field:    t.Field.DisplayName,
		Domain:   t.Domain.DisplayName,
		Score:    t.Score,
	}
}

// decodeAbstract converts the abstract_inverted_index back to plain text.
// The inverted index maps each word to the list of positions where that
// word appears.
func decodeAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                           string                  `json:"id"`
	Title                        string                  `json:"title"`
	DisplayName                  string                  `json:"display_name"`
	DOI                          string                  `json:"doi"`
	PublicationYear              int                     `json:"publication_year"`
	CitedByCount                 int                     `json:"cited_by_count"`
	FWCI                         *float64                `json:"fwci"`
	RelevanceScore               *float64                `json:"relevance_score"`
	CitationNormalizedPercentile *openAlexPercentile     `json:"citation_normalized_percentile"`
	CitedByPercentileYear        *openAlexPercentileBand `json:"cited_by_percentile_year"`
	Authorships                  []openAlexAuthorship    `json:"authorships"`
	AbstractInvertedIndex        map[string][]int        `json:"abstract_inverted_index"`
	Concepts                     []openAlexConcept       `json:"concepts"`
	Keywords                     []openAlexKeyword       `json:"keywords"`
	PrimaryTopic                 *openAlexTopic          `json:"primary_topic"`
	Topics                       []openAlexTopic         `json:"topics"`
}

type openAlexPercentile struct {
	Value *float64 `json:"value"`
}

type openAlexPercentileBand struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexConcept struct {
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

type openAlexKeyword struct {
	Keyword     string  `json:"keyword"`
	DisplayName string  `json:"display_name"`
	Score       float64 `json:"score"`
}

type openAlexTopic struct {
	ID          string        `json:"id"`
	DisplayName string        `json:"display_name"`
	Score       *float64      `json:"score"`
	Subfield    openAlexTaxon `json:"subfield"`
	Field       openAlexTaxon `json:"field"`
	Domain      openAlexTaxon `json:"domain"`
}

type openAlexTaxon struct {
	DisplayName string `json:"display_name"`
}

type openAlexRateLimitResponse struct {
	RateLimit openAlexRateLimit `json:"rate_limit"`
}

type openAlexRateLimit struct {
	DailyRemainingUSD *float64 `json:"daily_remaining_usd"`
}
