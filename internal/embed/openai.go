// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed produces text embeddings through the OpenAI embeddings API
// and provides the vector math used by similarity ranking.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/httputil"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// openAIEmbeddingsURL is the embeddings endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAIEmbeddingsURL = "https://api.openai.com/v1/embeddings"

const (
	defaultEmbeddingModel = "text-embedding-3-small"

	// maxBatchInputs is the API's per-request input ceiling.
	maxBatchInputs = 2048
)

// Client calls the embeddings API.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger
	apiKey     string
	model      string
	maxRetries int
}

// NewClient builds an embedding client from configuration. A nil logger
// disables logging.
func NewClient(cfg types.EmbeddingConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        log,
		apiKey:     cfg.APIKey,
		model:      model,
		maxRetries: cfg.MaxRetries,
	}
}

// Embed returns the embedding vector for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("cannot embed blank text")
	}
	vecs, err := c.request(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in request-sized chunks. Empty strings are
// skipped; the returned vectors align, in order, with the non-empty
// inputs. A batch with nothing to embed is an error.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	inputs := make([]string, 0, len(texts))
	for _, t := range texts {
		if t == "" {
			continue
		}
		inputs = append(inputs, t)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no embeddable texts in batch of %d", len(texts))
	}

	var vecs [][]float32
	for start := 0; start < len(inputs); start += maxBatchInputs {
		end := start + maxBatchInputs
		if end > len(inputs) {
			end = len(inputs)
		}
		chunk, err := c.request(ctx, inputs[start:end])
		if err != nil {
			return nil, fmt.Errorf("embedding inputs %d-%d: %w", start, end-1, err)
		}
		vecs = append(vecs, chunk...)
	}
	return vecs, nil
}

func (c *Client) request(ctx context.Context, inputs []string) ([][]float32, error) {
	payload, err := json.Marshal(embeddingRequest{Model: c.model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("encoding embeddings request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIEmbeddingsURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return nil, fmt.Errorf("embeddings API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings API returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var er embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("parsing embeddings response: %w", err)
	}
	if len(er.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(er.Data), len(inputs))
	}

	// The API may return data out of order; place vectors by index.
	vecs := make([][]float32, len(inputs))
	for _, d := range er.Data {
		if d.Index < 0 || d.Index >= len(inputs) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vecs[d.Index] = vec
	}
	return vecs, nil
}

// Embeddings API JSON structures.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}
