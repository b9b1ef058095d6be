// Package storage provides the memoization primitives the descriptor graph is
// built on: lazy values that compute at most once, memoized functions keyed by
// argument, and the recursion policies that make cyclic graphs tractable.
//
// All values are owned by a Manager. A Manager belongs to one resolution
// session and is discarded with it; there is no process-wide cache.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	// ErrRecursionDetected is returned by strict values when their computation
	// re-enters itself, directly or through a cycle of waiting goroutines.
	ErrRecursionDetected = errors.New("recursion detected in lazy value computation")

	// ErrCancelled is returned when the context is done at a memoization boundary.
	ErrCancelled = errors.New("lazy computation cancelled")
)

// Policy describes how a value reacts to re-entrant access and absent results.
type Policy int

const (
	// Strict fails re-entrant access with ErrRecursionDetected.
	Strict Policy = iota
	// RecursionTolerant answers re-entrant access with a fallback value.
	RecursionTolerant
	// Nullable caches "no value" as a legitimate result.
	Nullable
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case RecursionTolerant:
		return "recursion-tolerant"
	case Nullable:
		return "nullable"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Stats tracks what a Manager has done since creation.
type Stats struct {
	Computations       int64
	CacheHits          int64
	RecursionFallbacks int64
	RecursionErrors    int64
	Failures           int64
}

// HitRate returns cache hits as a percentage of all completed accesses.
func (s Stats) HitRate() float64 {
	total := s.CacheHits + s.Computations
	if total == 0 {
		return 0.0
	}
	return float64(s.CacheHits) / float64(total) * 100.0
}

// Manager owns lazy cells and serializes their population.
type Manager struct {
	name   string
	logger *zap.Logger

	// mu guards the state of every cell created by this manager and the wait-for graph.
	mu    sync.Mutex
	waits map[*chain]*cell

	chains atomic.Uint64

	computations       atomic.Int64
	hits               atomic.Int64
	recursionFallbacks atomic.Int64
	recursionErrors    atomic.Int64
	failures           atomic.Int64
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for recursion and failure events.
func WithLogger(logger *zap.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithName labels the manager in log output.
func WithName(name string) ManagerOption {
	return func(m *Manager) {
		m.name = name
	}
}

// NewManager creates an empty storage manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		name:   "storage",
		logger: zap.NewNop(),
		waits:  make(map[*chain]*cell),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(zap.String("manager", m.name))
	return m
}

// Stats returns a snapshot of the manager counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Computations:       m.computations.Load(),
		CacheHits:          m.hits.Load(),
		RecursionFallbacks: m.recursionFallbacks.Load(),
		RecursionErrors:    m.recursionErrors.Load(),
		Failures:           m.failures.Load(),
	}
}

// chain identifies one logical call chain. Re-entry is detected by comparing
// the chain that owns a computing cell with the chain asking for it.
type chain struct {
	id uint64
}

type chainKey struct{}

func (m *Manager) chainOf(ctx context.Context) (context.Context, *chain) {
	if ch, ok := ctx.Value(chainKey{}).(*chain); ok && ch != nil {
		return ctx, ch
	}
	ch := &chain{id: m.chains.Add(1)}
	return context.WithValue(ctx, chainKey{}, ch), ch
}

// Detach returns a context that starts a new call chain. Goroutines spawned
// from inside a computation must use it, otherwise their accesses are
// indistinguishable from re-entry.
func Detach(ctx context.Context) context.Context {
	return context.WithValue(ctx, chainKey{}, (*chain)(nil))
}

type cellState int

const (
	stateIdle cellState = iota
	stateComputing
	stateComputed
)

type cell struct {
	label string
	state cellState
	owner *chain
	done  chan struct{}
	value any
}

// access is the single entry point for every typed wrapper. It returns
// recursive=true instead of a value when the caller re-enters a computation
// it is itself (transitively) responsible for.
func (m *Manager) access(ctx context.Context, c *cell, compute func(context.Context) (any, error)) (value any, recursive bool, err error) {
	ctx, ch := m.chainOf(ctx)

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, fmt.Errorf("%w: %s: %w", ErrCancelled, c.label, ctxErr)
		}

		m.mu.Lock()
		switch c.state {
		case stateComputed:
			v := c.value
			m.mu.Unlock()
			m.hits.Add(1)
			return v, false, nil

		case stateComputing:
			if c.owner == ch || m.closesCycle(ch, c) {
				m.mu.Unlock()
				return nil, true, nil
			}
			m.waits[ch] = c
			done := c.done
			m.mu.Unlock()

			select {
			case <-done:
			case <-ctx.Done():
			}

			m.mu.Lock()
			delete(m.waits, ch)
			m.mu.Unlock()

		default:
			c.state = stateComputing
			c.owner = ch
			c.done = make(chan struct{})
			m.mu.Unlock()
			v, err := m.run(ctx, c, compute)
			return v, false, err
		}
	}
}

func (m *Manager) run(ctx context.Context, c *cell, compute func(context.Context) (any, error)) (value any, err error) {
	completed := false
	defer func() {
		m.mu.Lock()
		if completed && err == nil {
			c.state = stateComputed
			c.value = value
		} else {
			// failures and panics are not cached; the next access retries
			c.state = stateIdle
			c.value = nil
		}
		c.owner = nil
		close(c.done)
		m.mu.Unlock()
	}()

	m.computations.Add(1)
	value, err = compute(ctx)
	completed = true
	if err != nil {
		m.failures.Add(1)
	}
	return value, err
}

// closesCycle reports whether ch waiting on c would complete a cycle in the
// wait-for graph. Must be called with m.mu held.
func (m *Manager) closesCycle(ch *chain, c *cell) bool {
	owner := c.owner
	for steps := 0; owner != nil && steps <= len(m.waits); steps++ {
		if owner == ch {
			return true
		}
		next, ok := m.waits[owner]
		if !ok {
			return false
		}
		owner = next.owner
	}
	return false
}

func (m *Manager) onRecursion(label string, tolerant bool) error {
	if tolerant {
		m.recursionFallbacks.Add(1)
		m.logger.Debug("recursive access answered with fallback", zap.String("value", label))
		return nil
	}
	m.recursionErrors.Add(1)
	m.logger.Debug("recursive access rejected", zap.String("value", label))
	return fmt.Errorf("%w: %s", ErrRecursionDetected, label)
}

func (m *Manager) isComputed(c *cell) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return c.state == stateComputed
}
