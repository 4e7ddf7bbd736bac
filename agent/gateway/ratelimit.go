package gateway

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/Plantify-Shopping-Assistant/agent/contract"
	metricsx "github.com/tanpawarit/Plantify-Shopping-Assistant/pkg/metrics"
	"golang.org/x/time/rate"
)

// RateLimited waits on a token bucket before each call to the wrapped gateway.
type RateLimited struct {
	next    contractx.Gateway
	limiter *rate.Limiter
	name    string
}

var _ contractx.Gateway = (*RateLimited)(nil)

// NewRateLimited wraps next with a limiter of rps requests per second.
// A non-positive rps disables limiting and returns next unchanged.
func NewRateLimited(next contractx.Gateway, name string, rps float64, burst int) contractx.Gateway {
	if rps <= 0 || next == nil {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	if name == "" {
		name = "gateway"
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    name,
	}
}

func (r *RateLimited) Generate(ctx context.Context, req contractx.GenerateRequest) (string, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %v", contractx.ErrModelInvoke, err)
	}
	metricsx.RateLimitWaitSeconds.WithLabelValues(r.name).Observe(time.Since(start).Seconds())
	return r.next.Generate(ctx, req)
}
