package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a token-bucket limiter so concurrent
// build/audit agents sharing one API key don't exceed the provider's
// requests-per-second ceiling.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited wraps inner with a limiter allowing rps requests per
// second and a burst of burst.
func NewRateLimited(inner Provider, rps float64, burst int) *RateLimited {
	return &RateLimited{inner: inner, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Complete waits for a rate-limit token before delegating to the wrapped
// provider.
func (r *RateLimited) Complete(ctx context.Context, messages []Message, tools []Schema, model string) (Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return Response{}, err
	}
	return r.inner.Complete(ctx, messages, tools, model)
}
