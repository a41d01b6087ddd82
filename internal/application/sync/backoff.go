package sync

import (
	"math"
	"sync"
	"time"
)

const (
	backoffBase = 2.0
	maxBackoff  = 15 * time.Minute
)

// Backoff is a stateful exponential delay generator: 2s, 4s, 8s, ... capped
// at 15 minutes. Reset after forward progress so a clean run forgets prior
// failures.
type Backoff struct {
	mu      sync.Mutex
	attempt int
}

// NewBackoff creates a fresh backoff with no recorded attempts.
func NewBackoff() *Backoff {
	return &Backoff{}
}

// NextDelay increments the attempt counter and returns the delay for it.
func (b *Backoff) NextDelay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempt++
	delay := time.Duration(math.Pow(backoffBase, float64(b.attempt))) * time.Second
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	return delay
}

// Reset zeroes the attempt counter.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.attempt = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.attempt
}
