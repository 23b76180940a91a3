// Package classifier assigns tags to text using an external AI model, or an
// offline keyword matcher when no model is configured.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dyluth/classify/internal/logging"
	"github.com/dyluth/classify/pkg/catalog"
)

// Classifier returns tags for text. Implementations may return untrimmed or
// duplicate tags; callers normalise them.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]string, error)
}

// Type names a classifier provider.
type Type string

const (
	TypeClaude  Type = "claude"
	TypeOpenAI  Type = "openai"
	TypeKeyword Type = "keyword"
)

// ParseType accepts the provider names used in configuration.
// "chatgpt" is an alias for openai.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "claude", "anthropic":
		return TypeClaude, nil
	case "openai", "chatgpt":
		return TypeOpenAI, nil
	case "keyword":
		return TypeKeyword, nil
	}
	return "", fmt.Errorf("unknown classifier type: %s", s)
}

// Config selects and configures a provider.
type Config struct {
	Type Type

	AnthropicAPIKey string
	ClaudeModel     string
	OpenAIAPIKey    string
	OpenAIModel     string

	// BaseURL overrides the provider endpoint (tests, proxies, compatible APIs).
	BaseURL string

	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// New builds the configured classifier, wrapped in a rate limiter when
// RequestsPerSecond is positive. A model provider without an API key falls
// back to the keyword classifier with a warning.
func New(cfg Config, logger *slog.Logger) (Classifier, error) {
	logger = logging.Component(logger, "classifier")

	var c Classifier
	switch cfg.Type {
	case TypeClaude:
		if cfg.AnthropicAPIKey == "" {
			logger.Warn("no Anthropic API key configured, using keyword classifier")
			return NewKeyword(), nil
		}
		c = NewClaude(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.BaseURL, cfg.Timeout)
	case TypeOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("no OpenAI API key configured, using keyword classifier")
			return NewKeyword(), nil
		}
		c = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.BaseURL, cfg.Timeout)
	case TypeKeyword:
		return NewKeyword(), nil
	default:
		return nil, fmt.Errorf("unknown classifier type: %s", cfg.Type)
	}

	if cfg.RequestsPerSecond > 0 {
		c = NewLimited(c, cfg.RequestsPerSecond, cfg.Burst)
	}
	return c, nil
}

// systemPrompt instructs the model to answer with a bare comma-separated list.
var systemPrompt = fmt.Sprintf(
	"You are a helpful content tagger that analyzes text and extracts relevant tags. "+
		"Provide up to %d descriptive tags that categorize the content. "+
		"Return ONLY the tags separated by commas, nothing else. "+
		"Tags should be single words or short phrases.",
	catalog.MaxTags)

func userPrompt(text string) string {
	return fmt.Sprintf("Please analyze the following content and provide up to %d descriptive tags:\n\n%s",
		catalog.MaxTags, text)
}

var listMarker = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)

// ParseTags splits a model reply into tags. It accepts commas or newlines as
// separators and strips list bullets, numbering and surrounding quotes.
func ParseTags(reply string) []string {
	fields := strings.FieldsFunc(reply, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tag := listMarker.ReplaceAllString(strings.TrimSpace(f), "")
		tag = strings.Trim(tag, "\"'`. ")
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
