package auth

import (
	"sync"

	"golang.org/x/time/rate"
)

// Fallback limits when the security config leaves rate limiting unset.
const (
	defaultRPS   = 5
	defaultBurst = 10
)

// limiterPool hands out one token-bucket limiter per caller key (api key
// or remote ip). Limits are resolved from config once at construction.
type limiterPool struct {
	mu     sync.Mutex
	perKey map[string]*rate.Limiter
	rps    float64
	burst  int
}

func newLimiterPool(cfg SecConfig) *limiterPool {
	rps := cfg.RPS
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	return &limiterPool{
		perKey: map[string]*rate.Limiter{},
		rps:    rps,
		burst:  burst,
	}
}

// Allow reports whether the caller identified by key may proceed.
func (p *limiterPool) Allow(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.perKey[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(p.rps), p.burst)
		p.perKey[key] = l
	}
	return l.Allow()
}
