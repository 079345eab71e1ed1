package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"fridge-chef/internal/domain"
)

// Throttled rate-limits Generate calls so a burst of recommendation
// requests cannot blow through the provider quota.
type Throttled struct {
	inner   domain.TextGenerator
	limiter *rate.Limiter
}

func NewThrottled(inner domain.TextGenerator, requestsPerMinute int) *Throttled {
	interval := time.Minute / time.Duration(requestsPerMinute)
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (t *Throttled) Generate(ctx context.Context, prompt string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.inner.Generate(ctx, prompt)
}

func (t *Throttled) ModelName() string {
	return t.inner.ModelName()
}

var _ domain.TextGenerator = (*Throttled)(nil)
