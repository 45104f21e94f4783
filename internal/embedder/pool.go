package embedder

import (
	"fmt"
	"sync"
)

// Pool is the process-wide owner of the embedding backend. The backend is
// expensive to initialize, so construction is deferred until the first
// Acquire. Concurrent callers share the same initialized instance.
//
// Close is idempotent and safe to call before any Acquire; it blocks until
// every outstanding acquisition has been released so the backend is never
// torn down under an in-flight search.
type Pool struct {
	newFn func() (Embedder, error)

	mu       sync.Mutex
	emb      Embedder
	initErr  error
	closed   bool
	inFlight sync.WaitGroup
}

// NewPool creates a pool around the given backend constructor. The
// constructor runs at most once, on first Acquire.
func NewPool(newFn func() (Embedder, error)) *Pool {
	return &Pool{newFn: newFn}
}

// NewPoolFromEnv creates a pool whose backend is selected from the
// environment on first use.
func NewPoolFromEnv() *Pool {
	return NewPool(NewFromEnv)
}

// Acquire returns the shared embedder, initializing it on first call. The
// returned release function must be called when the caller is done with the
// embedder for this operation.
func (p *Pool) Acquire() (Embedder, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, nil, ErrClosed
	}

	if p.emb == nil && p.initErr == nil {
		p.emb, p.initErr = p.newFn()
	}
	if p.initErr != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNoProviderEnabled, p.initErr)
	}

	p.inFlight.Add(1)
	var once sync.Once
	release := func() {
		once.Do(p.inFlight.Done)
	}
	return p.emb, release, nil
}

// Close shuts the backend down. Subsequent Acquire calls fail with
// ErrClosed. Waits for outstanding acquisitions to be released first.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	emb := p.emb
	p.emb = nil
	p.mu.Unlock()

	p.inFlight.Wait()

	if emb != nil {
		return emb.Close()
	}
	return nil
}
