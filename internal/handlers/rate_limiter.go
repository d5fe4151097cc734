package handlers

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// pricingLimiter throttles quote and item-price requests per client IP so a
// single storefront session cannot monopolise the pricing engine.
type pricingLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu    sync.Mutex
	store map[string]pricingWindow
}

type pricingWindow struct {
	count int
	reset time.Time
}

func newPricingLimiter(limit int, window time.Duration, clock func() time.Time) *pricingLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &pricingLimiter{
		limit:  limit,
		window: window,
		clock:  clock,
		store:  make(map[string]pricingWindow),
	}
}

// allow reports whether the request's client may price another order now.
// When denied, retryAfter is the wait until that client's window resets.
func (l *pricingLimiter) allow(r *http.Request) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key := clientKey(r)
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.store[key]
	if !ok || now.After(entry.reset) {
		l.store[key] = pricingWindow{count: 1, reset: now.Add(l.window)}
		l.pruneExpiredLocked(now)
		return true, 0
	}

	if entry.count >= l.limit {
		return false, entry.reset.Sub(now)
	}
	entry.count++
	l.store[key] = entry
	return true, 0
}

func (l *pricingLimiter) pruneExpiredLocked(now time.Time) {
	for key, entry := range l.store {
		if now.After(entry.reset) {
			delete(l.store, key)
		}
	}
}

func clientKey(r *http.Request) string {
	addr := r.RemoteAddr
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "anonymous"
	}
	return addr
}
