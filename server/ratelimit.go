package server

import (
	"net"
	"sync"

	"golang.org/x/time/rate"
)

// remoteLimiters hands out one token-bucket limiter per remote host so a
// misbehaving backend cannot starve callbacks from the others.
type remoteLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newRemoteLimiters(perSecond float64, burst int) *remoteLimiters {
	if burst < 1 {
		burst = 1
	}
	return &remoteLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(perSecond),
		burst:    burst,
	}
}

func (l *remoteLimiters) allow(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Allow()
}
