// Package rate keeps a token bucket per client key.
package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type Limiter struct {
	burst  int
	limit  rate.Limit
	expiry time.Duration

	mu      sync.Mutex
	clients map[string]*clientLimiter

	stop chan struct{}
	once sync.Once
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewLimiter allows every client one request per interval on average, with
// bursts of up to burst requests. Clients idle for longer than expiry are
// forgotten. Call Stop to release the sweeping goroutine.
func NewLimiter(burst int, interval time.Duration, expiry time.Duration) *Limiter {
	lm := &Limiter{
		burst:   burst,
		limit:   rate.Every(interval),
		expiry:  expiry,
		clients: make(map[string]*clientLimiter),
		stop:    make(chan struct{}),
	}
	go lm.sweep(sweepPeriod(expiry))
	return lm
}

// Check consumes a token for id and reports whether one was available.
func (l *Limiter) Check(id string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	cl, ok := l.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[id] = cl
	}
	cl.lastAccess = now

	return cl.limiter.AllowN(now, 1)
}

func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *Limiter) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-l.stop:
			return
		case now := <-t.C:
			l.mu.Lock()
			for id, v := range l.clients {
				if now.Sub(v.lastAccess) > l.expiry {
					delete(l.clients, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

func sweepPeriod(expiry time.Duration) time.Duration {
	if p := expiry / 2; p > 0 && p < time.Minute {
		return p
	}
	return time.Minute
}
