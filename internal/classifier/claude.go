package classifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	defaultClaudeModel   = "claude-3-haiku-20240307"
	anthropicVersion     = "2023-06-01"
)

// Claude classifies text with the Anthropic Messages API.
type Claude struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// NewClaude creates a Claude classifier. Empty model and baseURL use defaults.
func NewClaude(apiKey, model, baseURL string, timeout time.Duration) *Claude {
	if model == "" {
		model = defaultClaudeModel
	}
	if baseURL == "" {
		baseURL = defaultClaudeBaseURL
	}
	return &Claude{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    newHTTPClient(timeout),
	}
}

func (c *Claude) Classify(ctx context.Context, text string) ([]string, error) {
	req := claudeRequest{
		Model:     c.model,
		MaxTokens: 100,
		System:    systemPrompt,
		Messages:  []claudeMessage{{Role: "user", Content: userPrompt(text)}},
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": anthropicVersion,
	}

	var resp claudeResponse
	if err := postJSON(ctx, c.http, "Claude", c.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return nil, err
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("empty response from Claude")
	}

	return ParseTags(sb.String()), nil
}
