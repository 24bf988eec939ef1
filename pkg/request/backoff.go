package request

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// ProviderBackoff paces requests per provider after repeated failures.
// Each failure widens the penalty window exponentially up to a cap; each
// success drains one failure, so a flaky provider recovers gradually.
type ProviderBackoff struct {
	mu    sync.Mutex
	state map[string]*providerState
	base  time.Duration
	limit time.Duration
}

type providerState struct {
	failures int
	until    time.Time
}

// NewProviderBackoff creates a backoff manager with the given delay bounds.
func NewProviderBackoff(base, limit time.Duration) *ProviderBackoff {
	return &ProviderBackoff{
		state: make(map[string]*providerState),
		base:  base,
		limit: limit,
	}
}

// Wait blocks until the provider's penalty window has passed.
func (b *ProviderBackoff) Wait(provider string) {
	b.mu.Lock()
	var until time.Time
	if st, ok := b.state[provider]; ok {
		until = st.until
	}
	b.mu.Unlock()

	if d := time.Until(until); d > 0 {
		time.Sleep(d)
	}
}

// RecordFailure widens the provider's penalty window.
func (b *ProviderBackoff) RecordFailure(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.state[provider]
	if st == nil {
		st = &providerState{}
		b.state[provider] = st
	}
	st.failures++
	st.until = time.Now().Add(b.delayFor(st.failures))
}

// RecordSuccess drains one failure. A fully recovered provider pays no delay.
func (b *ProviderBackoff) RecordSuccess(provider string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.state[provider]
	if st == nil || st.failures == 0 {
		return
	}
	st.failures--
	if st.failures == 0 {
		st.until = time.Time{}
	}
}

// delayFor doubles the base delay per extra failure, caps it, and adds up
// to 10% jitter so synchronized clients spread out.
func (b *ProviderBackoff) delayFor(failures int) time.Duration {
	d := time.Duration(float64(b.base) * math.Pow(2, float64(failures-1)))
	if d > b.limit {
		d = b.limit
	}
	return d + time.Duration(rand.Float64()*0.1*float64(d))
}

// GetState reports the provider's failure count and penalty deadline.
func (b *ProviderBackoff) GetState(provider string) (failures int, until time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if st, ok := b.state[provider]; ok {
		return st.failures, st.until
	}
	return 0, time.Time{}
}
