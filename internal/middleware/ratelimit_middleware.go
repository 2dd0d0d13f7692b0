package middleware

import (
	"sync"
	"time"
)

// FailureLimiter throttles clients by IP after repeated failed checks
// (bad webhook signatures, bad admin tokens). Successful requests are not
// counted.
type FailureLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptInfo
	max      int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
}

type attemptInfo struct {
	count   int
	firstAt time.Time
}

// NewFailureLimiter allows max failures per window per IP.
func NewFailureLimiter(max int, window time.Duration) *FailureLimiter {
	l := &FailureLimiter{
		attempts: make(map[string]*attemptInfo),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Blocked reports whether ip has used up its failures for the current window.
func (l *FailureLimiter) Blocked(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, ok := l.attempts[ip]
	if !ok {
		return false
	}
	if l.now().Sub(info.firstAt) > l.window {
		delete(l.attempts, ip)
		return false
	}
	return info.count >= l.max
}

// Fail records a failed attempt from ip.
func (l *FailureLimiter) Fail(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	info, ok := l.attempts[ip]
	if !ok || now.Sub(info.firstAt) > l.window {
		l.attempts[ip] = &attemptInfo{count: 1, firstAt: now}
		return
	}
	info.count++
}

// Stop ends the background cleanup.
func (l *FailureLimiter) Stop() {
	close(l.stop)
}

func (l *FailureLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for ip, info := range l.attempts {
				if now.Sub(info.firstAt) > l.window {
					delete(l.attempts, ip)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}
