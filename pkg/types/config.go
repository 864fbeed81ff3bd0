package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-advisor/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for literature retrieval.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email joins the search service's polite pool; sent as mailto.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// APIKey unlocks semantic search and the budget endpoint. Keyword and
	// title/abstract modes work without it.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PerPage is the default page size for raw searches (default 20).
	PerPage int `json:"per_page" yaml:"per_page"`

	// SearchLimit caps the merged paper set per assessment (default 8).
	SearchLimit int `json:"search_limit" yaml:"search_limit"`

	// QueriesPerVariant is the per-variant result limit in the multi-query
	// branch (default 5).
	QueriesPerVariant int `json:"queries_per_variant" yaml:"queries_per_variant"`

	// MultiQuery enables the planner's multi-variant branch (default true).
	MultiQuery bool `json:"multi_query" yaml:"multi_query"`

	// UseSemanticSearch enables the paid semantic mode when the budget
	// gate allows it.
	UseSemanticSearch bool `json:"use_semantic_search" yaml:"use_semantic_search"`

	// SemanticBudgetThreshold is the minimum remaining daily budget in USD
	// required to spend a semantic query (default 0.05).
	SemanticBudgetThreshold float64 `json:"semantic_budget_threshold" yaml:"semantic_budget_threshold"`

	// UseEmbeddingRerank applies an embedding-similarity rerank after the
	// local BM25 pass.
	UseEmbeddingRerank bool `json:"use_embedding_rerank" yaml:"use_embedding_rerank"`

	// BroadTerms are domain words too general to search on alone. Planner
	// and reranker drop them; defaults lean toward organismal biology and
	// should be overridden for other fields.
	BroadTerms []string `json:"broad_terms,omitempty" yaml:"broad_terms,omitempty"`

	// TopicVocabulary are topic-like words the niche query may append when
	// one of them appears among the key concepts.
	TopicVocabulary []string `json:"topic_vocabulary,omitempty" yaml:"topic_vocabulary,omitempty"`
}

// AIConfig holds shared settings for stages that call the reasoning API.
type AIConfig struct {
	// Model is the reasoning model identifier (default "gpt-4-0125-preview").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the reasoning API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// EmbeddingConfig holds settings for the embedding service.
type EmbeddingConfig struct {
	// Model is the embedding model identifier (default "text-embedding-3-small").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the embedding API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// NoveltyConfig holds thresholds for evidence statistics.
type NoveltyConfig struct {
	// FWCIHighThreshold: a median impact score strictly above it buckets as
	// HIGH (default 2.2).
	FWCIHighThreshold float64 `json:"fwci_high_threshold" yaml:"fwci_high_threshold"`

	// FWCILowThreshold: a median strictly below it buckets as LOW
	// (default 1.2). Both boundary values bucket as MEDIUM.
	FWCILowThreshold float64 `json:"fwci_low_threshold" yaml:"fwci_low_threshold"`
}

// GapConfig holds settings for the gap store and gap retrieval.
type GapConfig struct {
	// StorePath is the sqlite database path (default "gaps.db").
	StorePath string `json:"store_path" yaml:"store_path"`

	// RetrievalTopK is the candidate count for gap retrieval (default 50).
	RetrievalTopK int `json:"retrieval_top_k" yaml:"retrieval_top_k"`

	// UseVectorSearch toggles embedding-similarity retrieval; when off the
	// retriever serves an unordered full scan.
	UseVectorSearch bool `json:"use_vector_search" yaml:"use_vector_search"`
}

// AdvisorConfig groups all stage configurations.
type AdvisorConfig struct {
	Search    SearchConfig    `json:"search" yaml:"search"`
	AI        AIConfig        `json:"ai" yaml:"ai"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Novelty   NoveltyConfig   `json:"novelty" yaml:"novelty"`
	Gaps      GapConfig       `json:"gaps" yaml:"gaps"`
}

// DefaultBroadTerms are field words that match too many works to be useful
// search terms on their own.
func DefaultBroadTerms() []string {
	return []string{
		"speciation", "ecology", "evolution", "adaptation", "biodiversity",
		"climate", "genetics", "molecular", "phylogeny", "morphology",
		"population", "species", "conservation", "behavior", "physiology",
	}
}

// DefaultTopicVocabulary are topic-like words the niche query planner may
// append to a specific-concept phrase.
func DefaultTopicVocabulary() []string {
	return []string{"speciation", "conservation", "phylogeny", "ecology", "evolution"}
}
