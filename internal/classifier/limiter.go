package classifier

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to an underlying classifier with a token bucket so
// that bursts of requests do not exceed the provider's rate limits.
type Limited struct {
	next    Classifier
	limiter *rate.Limiter
}

// NewLimited wraps next. burst < 1 is treated as 1.
func NewLimited(next Classifier, requestsPerSecond float64, burst int) *Limited {
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Classify waits for a token, then delegates. A cancelled context while
// waiting is returned as an error without calling the provider.
func (l *Limited) Classify(ctx context.Context, text string) ([]string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return l.next.Classify(ctx, text)
}
