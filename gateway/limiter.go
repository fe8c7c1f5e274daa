package gateway

import (
	"sync"
)

// limiter enforces the per-IP connection cap. The total cap lives on
// the gateway's Descriptor so dashboards see the same number.
type limiter struct {
	mu       sync.Mutex
	maxPerIP int
	perIP    map[string]int
}

func newLimiter(maxPerIP int) *limiter {
	return &limiter{maxPerIP: maxPerIP, perIP: make(map[string]int)}
}

// acquire counts one connection from ip. False means the cap is hit
// and the connection must be dropped, not queued.
func (l *limiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.maxPerIP > 0 && l.perIP[ip] >= l.maxPerIP {
		return false
	}
	l.perIP[ip]++
	return true
}

func (l *limiter) release(ip string) {
	l.mu.Lock()
	if n := l.perIP[ip]; n > 1 {
		l.perIP[ip] = n - 1
	} else {
		delete(l.perIP, ip)
	}
	l.mu.Unlock()
}

func (l *limiter) count(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}
