package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// RateLimiter paces outgoing requests per host: at most perHost requests run
// at once against one host, and consecutive requests to it are spaced by at
// least interval. A nil *RateLimiter never waits.
type RateLimiter struct {
	interval time.Duration
	perHost  int
	mu       sync.Mutex
	hosts    map[string]*hostState
}

type hostState struct {
	slots    chan struct{}
	lastSent time.Time
}

func New(interval time.Duration, perHost int) *RateLimiter {
	return &RateLimiter{
		interval: max(interval, 0),
		perHost:  max(perHost, 1),
		hosts:    make(map[string]*hostState),
	}
}

// Acquire blocks until a request to rawURL's host may start. The returned
// release must be called once the request is done.
func (rl *RateLimiter) Acquire(ctx context.Context, rawURL string) (func(), error) {
	if rl == nil {
		return func() {}, nil
	}

	host := hostOf(rawURL)
	state := rl.state(host)

	select {
	case state.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		rl.mu.Lock()
		delay := getDelay(rl.interval, state.lastSent)
		if delay == 0 {
			state.lastSent = time.Now()
			rl.mu.Unlock()

			break
		}
		rl.mu.Unlock()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			<-state.slots

			return nil, ctx.Err()
		}
	}

	var once sync.Once

	return func() {
		once.Do(func() { <-state.slots })
	}, nil
}

func (rl *RateLimiter) state(host string) *hostState {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.hosts[host]
	if !ok {
		state = &hostState{slots: make(chan struct{}, rl.perHost)}
		rl.hosts[host] = state
	}

	return state
}
