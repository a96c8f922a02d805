package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	rateWindow   = time.Minute
	staleAfter   = 10 * time.Minute
	cleanupEvery = 5 * time.Minute
)

// rateLimiter counts requests per client IP in fixed one-minute windows.
type rateLimiter struct {
	perMinute int
	hits      atomic.Int64

	mu      sync.Mutex
	clients map[string]*window

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start    time.Time
	count    int
	lastSeen time.Time
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		perMinute: perMinute,
		clients:   make(map[string]*window),
		done:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			rl.cleanupStaleEntries(now)
		case <-rl.done:
			return
		}
	}
}

// cleanupStaleEntries forgets clients not seen for staleAfter.
func (rl *rateLimiter) cleanupStaleEntries(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, w := range rl.clients {
		if now.Sub(w.lastSeen) > staleAfter {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow reports whether clientIP still has budget in its current window.
func (rl *rateLimiter) allow(clientIP string) bool {
	return rl.allowAt(clientIP, time.Now())
}

func (rl *rateLimiter) allowAt(clientIP string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.clients[clientIP]
	if !ok || now.Sub(w.start) >= rateWindow {
		w = &window{start: now}
		rl.clients[clientIP] = w
	}
	w.lastSeen = now
	w.count++
	if w.count > rl.perMinute {
		rl.hits.Add(1)
		return false
	}
	return true
}

func (rl *rateLimiter) activeClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *rateLimiter) totalHits() int64 {
	return rl.hits.Load()
}
