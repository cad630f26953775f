package channel

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer throttles outbound sends to a provider rate limit. A nil Pacer
// never blocks, so backends can hold one unconditionally.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer builds a Pacer for ratePerSecond sends. Zero or negative rates
// disable pacing.
func NewPacer(ratePerSecond float64) *Pacer {
	if ratePerSecond <= 0 {
		return nil
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1)}
}

// Wait blocks until the next send is allowed or the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}
