package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to a TextGenerator. Free-tier providers
// reject bursts, so callers queue on the limiter until ctx expires.
type RateLimited struct {
	next    TextGenerator
	limiter *rate.Limiter
}

// NewRateLimited allows requestsPerMinute calls with a burst of one.
// A non-positive rate disables throttling.
func NewRateLimited(next TextGenerator, requestsPerMinute int) *RateLimited {
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (r *RateLimited) GenerateContent(ctx context.Context, prompt string, opts ...CallOption) (ContentResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return ContentResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.GenerateContent(ctx, prompt, opts...)
}

// Close closes the wrapped generator when it holds resources.
func (r *RateLimited) Close() error {
	if c, ok := r.next.(Closer); ok {
		return c.Close()
	}
	return nil
}
