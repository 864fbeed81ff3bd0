// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the reasoning-service client. It turns research questions
// into structured decompositions, verdicts, impact judgments, and taxonomy
// labels through an OpenAI-shaped chat-completions API. Every call site
// documents its fallback for malformed or missing JSON; parse failures
// degrade to those defaults and are never surfaced as assessment errors.
package llm

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

// openAIChatURL is the chat-completions endpoint. Package-level var for
// test substitution.
var openAIChatURL = "https://api.openai.com/v1/chat/completions"

const defaultChatModel = "gpt-4-0125-preview"

// Client calls the reasoning API.
type Client struct {
	httpClient *http.Client
	log        *zap.Logger
	apiKey     string
	model      string
	maxRetries int
}

// NewClient builds a reasoning client from configuration. A nil logger
// disables logging.
func NewClient(cfg types.AIConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = defaultChatModel
	}
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second},
		log:        log,
		apiKey:     cfg.APIKey,
		model:      model,
		maxRetries: cfg.MaxRetries,
	}
}

// chatParams selects the per-call-site completion settings.
type chatParams struct {
	prompt      string
	temperature float64
	maxTokens   int

	// jsonObject asks the API to constrain output to a JSON object.
	jsonObject bool
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

// complete sends one prompt and returns the raw completion text.
func (c *Client) complete(ctx context.Context, p chatParams) (string, error) {
	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: p.prompt}},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	if p.jsonObject {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.maxRetries)
	if err != nil {
		return "", fmt.Errorf("calling reasoning API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("reasoning API returned HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decoding reasoning response: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("reasoning API returned no choices")
	}
	return cr.Choices[0].Message.Content, nil
}

// jsonBlock extracts the JSON value from a completion, tolerating markdown
// code fences and prose around the object or array.
func jsonBlock(text string) string {
	text = strings.TrimSpace(text)
	if fenced := strings.Index(text, "```"); fenced >= 0 {
		rest := text[fenced+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			text = strings.TrimSpace(rest[:end])
		} else {
			text = strings.TrimSpace(rest)
		}
	}

	objStart := strings.IndexByte(text, '{')
	arrStart := strings.IndexByte(text, '[')
	start, opener, closer := objStart, byte('{'), byte('}')
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, opener, closer = arrStart, '[', ']'
	}
	if start < 0 {
		return text
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		switch {
		case inString:
			if text[i] == '\\' {
				i++
			} else if text[i] == '"' {
				inString = false
			}
		case text[i] == '"':
			inString = true
		case text[i] == opener:
			depth++
		case text[i] == closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text[start:]
}

// clamp01 bounds a score to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// parseImpactLevel maps a completion label onto an ImpactLevel; the second
// return is false for anything unrecognized.
func parseImpactLevel(s string) (types.ImpactLevel, bool) {
	switch types.ImpactLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case types.ImpactHigh:
		return types.ImpactHigh, true
	case types.ImpactMedium:
		return types.ImpactMedium, true
	case types.ImpactLow:
		return types.ImpactLow, true
	case types.ImpactUncertain:
		return types.ImpactUncertain, true
	}
	return "", false
}
