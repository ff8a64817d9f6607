package core

// import_limiter.go bounds how many batches run at once.
//
// Each batch holds one slot for its whole duration. When all slots are
// taken, a new batch waits up to maxWait and then fails with
// ErrTooManyImports. The limiter also tracks active batches per tenant
// for status reporting, and supports graceful shutdown via WaitForDrain.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTooManyImports is returned when no slot frees up within the wait time.
var ErrTooManyImports = errors.New("too many concurrent imports, please try again later")

// DefaultMaxConcurrentImports is the default limit for parallel batches.
const DefaultMaxConcurrentImports = 5

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// ImportLimiter controls concurrent batch processing with a semaphore.
type ImportLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu       sync.Mutex
	byTenant map[uuid.UUID]int
	drained  chan struct{} // closed while no batch is active
}

// NewImportLimiter creates a limiter allowing at most maxConcurrent batches.
func NewImportLimiter(maxConcurrent int, maxWait time.Duration) *ImportLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentImports
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	drained := make(chan struct{})
	close(drained)

	return &ImportLimiter{
		slots:    make(chan struct{}, maxConcurrent),
		maxWait:  maxWait,
		byTenant: make(map[uuid.UUID]int),
		drained:  drained,
	}
}

// Acquire waits for a slot for tenantID. On success the returned func
// releases the slot and must be called exactly once (use defer).
func (l *ImportLimiter) Acquire(ctx context.Context, tenantID uuid.UUID) (func(), error) {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-timer.C:
		return nil, ErrTooManyImports
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	l.mu.Lock()
	if l.activeLocked() == 0 {
		l.drained = make(chan struct{})
	}
	l.byTenant[tenantID]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.release(tenantID) })
	}, nil
}

func (l *ImportLimiter) release(tenantID uuid.UUID) {
	l.mu.Lock()
	if n := l.byTenant[tenantID]; n <= 1 {
		delete(l.byTenant, tenantID)
	} else {
		l.byTenant[tenantID] = n - 1
	}
	if l.activeLocked() == 0 {
		close(l.drained)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *ImportLimiter) activeLocked() int {
	n := 0
	for _, c := range l.byTenant {
		n += c
	}
	return n
}

// ActiveCount returns the number of running batches.
func (l *ImportLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeLocked()
}

// MaxConcurrent returns the maximum allowed concurrent batches.
func (l *ImportLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no batch is running or ctx is done.
func (l *ImportLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ImportLimiterStatus is a snapshot of the limiter's state.
type ImportLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
	Tenants       int `json:"tenants"`
}

// Status returns the current limiter state for monitoring.
func (l *ImportLimiter) Status() ImportLimiterStatus {
	l.mu.Lock()
	active := l.activeLocked()
	tenants := len(l.byTenant)
	l.mu.Unlock()

	limit := l.MaxConcurrent()
	return ImportLimiterStatus{
		Active:        active,
		Available:     limit - active,
		MaxConcurrent: limit,
		Tenants:       tenants,
	}
}
