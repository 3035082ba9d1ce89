package app

import (
	"context"
	"sync"
)

// FetchLimiter borne le nombre de résolutions réseau simultanées.
// Le plafond suit MaxConcurrentFetches et peut changer à chaud.
type FetchLimiter struct {
	mu       sync.Mutex
	limit    int
	inFlight int
	waiting  int
	wake     chan struct{}
}

func NewFetchLimiter(limit int) *FetchLimiter {
	return &FetchLimiter{limit: clampLimit(limit), wake: make(chan struct{})}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 1
	}
	return limit
}

// LimiterStats est un instantané de l'état du limiteur.
type LimiterStats struct {
	Limit    int `json:"limit"`
	InFlight int `json:"inFlight"`
	Waiting  int `json:"waiting"`
}

func (l *FetchLimiter) Stats() LimiterStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return LimiterStats{Limit: l.limit, InFlight: l.inFlight, Waiting: l.waiting}
}

func (l *FetchLimiter) SetLimit(limit int) {
	limit = clampLimit(limit)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.limit == limit {
		return
	}
	l.limit = limit
	l.broadcastLocked()
}

// Acquire bloque jusqu'à obtenir un slot ou l'annulation du contexte.
// La fonction retournée libère le slot; l'appeler plusieurs fois est sans effet.
func (l *FetchLimiter) Acquire(ctx context.Context) (func(), error) {
	l.mu.Lock()
	l.waiting++
	for l.inFlight >= l.limit {
		ch := l.wake
		l.mu.Unlock()
		select {
		case <-ctx.Done():
			l.mu.Lock()
			l.waiting--
			l.mu.Unlock()
			return nil, ctx.Err()
		case <-ch:
		}
		l.mu.Lock()
	}
	l.waiting--
	l.inFlight++
	l.mu.Unlock()

	var once sync.Once
	return func() { once.Do(l.release) }, nil
}

func (l *FetchLimiter) release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		l.inFlight--
	}
	l.broadcastLocked()
}

func (l *FetchLimiter) broadcastLocked() {
	close(l.wake)
	l.wake = make(chan struct{})
}
