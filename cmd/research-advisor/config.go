// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-advisor/internal/secrets"
	"github.com/pdiddy/research-advisor/pkg/types"
)

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-advisor")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-advisor"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_ADVISOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setConfigDefaults() {
	viper.SetDefault("search.timeout", 30*time.Second)
	viper.SetDefault("search.user_agent", "research-advisor/0.1")
	viper.SetDefault("search.per_page", 20)
	viper.SetDefault("search.search_limit", 8)
	viper.SetDefault("search.queries_per_variant", 5)
	viper.SetDefault("search.multi_query", true)
	viper.SetDefault("search.use_semantic_search", false)
	viper.SetDefault("search.semantic_budget_threshold", 0.05)
	viper.SetDefault("search.use_embedding_rerank", false)
	viper.SetDefault("search.broad_terms", types.DefaultBroadTerms())
	viper.SetDefault("search.topic_vocabulary", types.DefaultTopicVocabulary())

	viper.SetDefault("ai.model", "gpt-4-0125-preview")
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("embedding.model", "text-embedding-3-small")
	viper.SetDefault("embedding.max_retries", 3)

	viper.SetDefault("novelty.fwci_high_threshold", 2.2)
	viper.SetDefault("novelty.fwci_low_threshold", 1.2)

	viper.SetDefault("gaps.store_path", "gaps.db")
	viper.SetDefault("gaps.retrieval_top_k", 50)
	viper.SetDefault("gaps.use_vector_search", true)
}

// advisorConfig assembles the stage configurations from the config file,
// environment, and loaded secrets.
func advisorConfig() types.AdvisorConfig {
	return types.AdvisorConfig{
		Search: types.SearchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("search.timeout"),
				UserAgent: viper.GetString("search.user_agent"),
			},
			Email:                   loadedSecrets.Resolve(secrets.KeyOpenAlexEmail, viper.GetString("search.email")),
			APIKey:                  loadedSecrets.Resolve(secrets.KeyOpenAlex, viper.GetString("search.api_key")),
			PerPage:                 viper.GetInt("search.per_page"),
			SearchLimit:             viper.GetInt("search.search_limit"),
			QueriesPerVariant:       viper.GetInt("search.queries_per_variant"),
			MultiQuery:              viper.GetBool("search.multi_query"),
			UseSemanticSearch:       viper.GetBool("search.use_semantic_search"),
			SemanticBudgetThreshold: viper.GetFloat64("search.semantic_budget_threshold"),
			UseEmbeddingRerank:      viper.GetBool("search.use_embedding_rerank"),
			BroadTerms:              viper.GetStringSlice("search.broad_terms"),
			TopicVocabulary:         viper.GetStringSlice("search.topic_vocabulary"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     loadedSecrets.Resolve(secrets.KeyOpenAI, viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Embedding: types.EmbeddingConfig{
			Model:      viper.GetString("embedding.model"),
			APIKey:     loadedSecrets.Resolve(secrets.KeyOpenAI, viper.GetString("embedding.api_key")),
			MaxRetries: viper.GetInt("embedding.max_retries"),
		},
		Novelty: types.NoveltyConfig{
			FWCIHighThreshold: viper.GetFloat64("novelty.fwci_high_threshold"),
			FWCILowThreshold:  viper.GetFloat64("novelty.fwci_low_threshold"),
		},
		Gaps: types.GapConfig{
			StorePath:       viper.GetString("gaps.store_path"),
			RetrievalTopK:   viper.GetInt("gaps.retrieval_top_k"),
			UseVectorSearch: viper.GetBool("gaps.use_vector_search"),
		},
	}
}
