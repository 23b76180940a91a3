package classifier

import (
	"context"
	"strings"
)

// keywordRules maps tags to the substrings that trigger them.
var keywordRules = []struct {
	tags     []string
	keywords []string
}{
	{[]string{"programming", "rust"}, []string{"rust"}},
	{[]string{"programming", "go"}, []string{"golang", "goroutine"}},
	{[]string{"web"}, []string{"web", "http", "html"}},
	{[]string{"api"}, []string{"api", "rest", "graphql"}},
	{[]string{"database"}, []string{"database", "sql", "redis"}},
	{[]string{"ai"}, []string{"machine learning", "neural", "llm"}},
	{[]string{"cooking"}, []string{"cooking", "recipe", "kitchen"}},
	{[]string{"travel"}, []string{"travel", "flight", "hotel"}},
	{[]string{"news"}, []string{"breaking", "reported", "announced"}},
}

// Keyword is an offline classifier that tags text by substring matching.
// It never fails and returns "unclassified" when nothing matches.
type Keyword struct{}

// NewKeyword returns a keyword classifier.
func NewKeyword() *Keyword {
	return &Keyword{}
}

func (k *Keyword) Classify(ctx context.Context, text string) ([]string, error) {
	lower := strings.ToLower(text)

	var tags []string
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				tags = append(tags, rule.tags...)
				break
			}
		}
	}

	if len(tags) == 0 {
		return []string{"unclassified"}, nil
	}
	return tags, nil
}
