package llm

import (
	"context"

	"golang.org/x/time/rate"
)

type rateLimitedGenerator struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator caps the provider request rate across all users.
// A non-positive rps disables the limit.
func NewRateLimitedGenerator(next Generator, rps float64, burst int) Generator {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &rateLimitedGenerator{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (g *rateLimitedGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return g.next.Generate(ctx, req)
}
