package collection

import (
	"context"
	"log"
	"sync"

	"github.com/REPPL/itemdeck.app-sub011/pkg/fetch"
)

// Manager holds the currently loaded collection and serializes
// collection switches. A newer switch cancels the in-flight load and a
// stale load's result is discarded, so a slow load can never overwrite
// a newer collection's state. A failed load leaves the previous
// collection untouched.
type Manager struct {
	open func(base string) fetch.Fetcher

	mu         sync.RWMutex
	current    *Collection
	base       string
	lastErr    error
	generation uint64
	cancel     context.CancelFunc
}

// NewManager creates a manager. open builds the fetch capability for a
// base location (directory, URL, ...).
func NewManager(open func(base string) fetch.Fetcher) *Manager {
	return &Manager{open: open}
}

// Current returns the loaded collection, if any.
func (m *Manager) Current() (*Collection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.current != nil
}

// Base returns the base location of the current collection.
func (m *Manager) Base() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.base
}

// LastError returns the error of the most recent failed load, or nil.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// Switch starts loading the collection at base in the background,
// superseding and cancelling any load still in flight.
func (m *Manager) Switch(ctx context.Context, base string) {
	gen, lctx := m.begin(ctx)
	go m.load(lctx, gen, base)
}

// SwitchWait loads the collection at base synchronously. It follows the
// same supersession rules: if another switch arrives while this load
// runs, this result is discarded and an error returned.
func (m *Manager) SwitchWait(ctx context.Context, base string) (*Collection, error) {
	gen, lctx := m.begin(ctx)
	return m.load(lctx, gen, base)
}

// begin claims a new load generation and cancels the previous load.
func (m *Manager) begin(ctx context.Context) (uint64, context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
	}
	m.generation++
	lctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	return m.generation, lctx
}

func (m *Manager) load(ctx context.Context, gen uint64, base string) (*Collection, error) {
	col, err := NewLoader(m.open(base)).Load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		// Superseded while in flight; discard whatever we got.
		return nil, context.Canceled
	}
	if err != nil {
		m.lastErr = err
		log.Printf("collection: load of %q failed: %v", base, err)
		return nil, err
	}
	m.current = col
	m.base = base
	m.lastErr = nil
	log.Printf("collection: loaded %q (%s format, %d entities, %d warnings)",
		base, col.Format, col.Graph.Total(), len(col.Warnings))
	return col, nil
}
