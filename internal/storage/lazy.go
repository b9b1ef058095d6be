package storage

import (
	"context"
	"fmt"
	"sync"
)

// Option tunes a lazy value or memoized function producing values of type T.
type Option[T any] func(*config[T])

type config[T any] struct {
	label       string
	tolerant    bool
	onRecursion T
}

// OnRecursion switches the value to the RecursionTolerant policy: re-entrant
// access returns fallback while the outer computation carries on.
func OnRecursion[T any](fallback T) Option[T] {
	return func(c *config[T]) {
		c.tolerant = true
		c.onRecursion = fallback
	}
}

// Label names the value in errors and log output.
func Label[T any](label string) Option[T] {
	return func(c *config[T]) {
		c.label = label
	}
}

func newConfig[T any](defaultLabel string, opts []Option[T]) config[T] {
	cfg := config[T]{label: defaultLabel}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// LazyValue computes a T once, on first access.
type LazyValue[T any] struct {
	m       *Manager
	cell    cell
	cfg     config[T]
	compute func(context.Context) (T, error)
}

// NewLazyValue creates a strict lazy value unless OnRecursion is given.
func NewLazyValue[T any](m *Manager, compute func(context.Context) (T, error), opts ...Option[T]) *LazyValue[T] {
	cfg := newConfig("lazy value", opts)
	return &LazyValue[T]{m: m, cell: cell{label: cfg.label}, cfg: cfg, compute: compute}
}

// NewRecursionTolerantLazyValue is NewLazyValue with OnRecursion(fallback).
func NewRecursionTolerantLazyValue[T any](m *Manager, compute func(context.Context) (T, error), fallback T) *LazyValue[T] {
	return NewLazyValue(m, compute, OnRecursion(fallback))
}

// Policy reports how the value treats re-entrant access.
func (l *LazyValue[T]) Policy() Policy {
	if l.cfg.tolerant {
		return RecursionTolerant
	}
	return Strict
}

// Get returns the cached value, computing it if needed.
func (l *LazyValue[T]) Get(ctx context.Context) (T, error) {
	var zero T
	v, recursive, err := l.m.access(ctx, &l.cell, func(ctx context.Context) (any, error) {
		return l.compute(ctx)
	})
	if err != nil {
		return zero, err
	}
	if recursive {
		if err := l.m.onRecursion(l.cfg.label, l.cfg.tolerant); err != nil {
			return zero, err
		}
		return l.cfg.onRecursion, nil
	}
	return as[T](v), nil
}

// IsComputed reports whether a value has been cached.
func (l *LazyValue[T]) IsComputed() bool {
	return l.m.isComputed(&l.cell)
}

// as converts a cached value back to T; nil interface values become the zero T.
func as[T any](v any) T {
	t, _ := v.(T)
	return t
}

type optional[T any] struct {
	value T
	ok    bool
}

// NullableLazyValue computes an optional T once. A computed absence is cached
// like any other result.
type NullableLazyValue[T any] struct {
	m       *Manager
	cell    cell
	cfg     config[T]
	compute func(context.Context) (T, bool, error)
}

// NewNullableLazyValue creates a lazy value under the Nullable policy.
func NewNullableLazyValue[T any](m *Manager, compute func(context.Context) (T, bool, error), opts ...Option[T]) *NullableLazyValue[T] {
	cfg := newConfig("nullable lazy value", opts)
	return &NullableLazyValue[T]{m: m, cell: cell{label: cfg.label}, cfg: cfg, compute: compute}
}

// Policy always reports Nullable.
func (l *NullableLazyValue[T]) Policy() Policy {
	return Nullable
}

// Get returns the value and whether one is present.
func (l *NullableLazyValue[T]) Get(ctx context.Context) (T, bool, error) {
	var zero T
	v, recursive, err := l.m.access(ctx, &l.cell, func(ctx context.Context) (any, error) {
		value, ok, err := l.compute(ctx)
		return optional[T]{value: value, ok: ok}, err
	})
	if err != nil {
		return zero, false, err
	}
	if recursive {
		if err := l.m.onRecursion(l.cfg.label, l.cfg.tolerant); err != nil {
			return zero, false, err
		}
		return l.cfg.onRecursion, l.cfg.tolerant, nil
	}
	opt := v.(optional[T])
	return opt.value, opt.ok, nil
}

// IsComputed reports whether a result, present or absent, has been cached.
func (l *NullableLazyValue[T]) IsComputed() bool {
	return l.m.isComputed(&l.cell)
}

// MemoizedFunction maps keys to values, computing each key at most once.
type MemoizedFunction[K comparable, V any] struct {
	m       *Manager
	cfg     config[V]
	compute func(context.Context, K) (V, error)

	mu    sync.Mutex
	cells map[K]*cell
}

// NewMemoizedFunction creates a strict memoized function unless OnRecursion is given.
func NewMemoizedFunction[K comparable, V any](m *Manager, compute func(context.Context, K) (V, error), opts ...Option[V]) *MemoizedFunction[K, V] {
	return &MemoizedFunction[K, V]{
		m:       m,
		cfg:     newConfig("memoized function", opts),
		compute: compute,
		cells:   make(map[K]*cell),
	}
}

func (f *MemoizedFunction[K, V]) cellFor(key K) *cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cells[key]
	if !ok {
		c = &cell{label: fmt.Sprintf("%s(%v)", f.cfg.label, key)}
		f.cells[key] = c
	}
	return c
}

// Get returns the value for key, computing it on first request.
func (f *MemoizedFunction[K, V]) Get(ctx context.Context, key K) (V, error) {
	var zero V
	c := f.cellFor(key)
	v, recursive, err := f.m.access(ctx, c, func(ctx context.Context) (any, error) {
		return f.compute(ctx, key)
	})
	if err != nil {
		return zero, err
	}
	if recursive {
		if err := f.m.onRecursion(c.label, f.cfg.tolerant); err != nil {
			return zero, err
		}
		return f.cfg.onRecursion, nil
	}
	return as[V](v), nil
}

// IsComputed reports whether key has a cached value.
func (f *MemoizedFunction[K, V]) IsComputed(key K) bool {
	f.mu.Lock()
	c, ok := f.cells[key]
	f.mu.Unlock()
	return ok && f.m.isComputed(c)
}

// Len returns the number of keys that have been requested.
func (f *MemoizedFunction[K, V]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cells)
}

// NullableMemoizedFunction maps keys to optional values; absences are cached.
type NullableMemoizedFunction[K comparable, V any] struct {
	m       *Manager
	cfg     config[V]
	compute func(context.Context, K) (V, bool, error)

	mu    sync.Mutex
	cells map[K]*cell
}

// NewNullableMemoizedFunction creates a memoized function under the Nullable policy.
func NewNullableMemoizedFunction[K comparable, V any](m *Manager, compute func(context.Context, K) (V, bool, error), opts ...Option[V]) *NullableMemoizedFunction[K, V] {
	return &NullableMemoizedFunction[K, V]{
		m:       m,
		cfg:     newConfig("nullable memoized function", opts),
		compute: compute,
		cells:   make(map[K]*cell),
	}
}

func (f *NullableMemoizedFunction[K, V]) cellFor(key K) *cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cells[key]
	if !ok {
		c = &cell{label: fmt.Sprintf("%s(%v)", f.cfg.label, key)}
		f.cells[key] = c
	}
	return c
}

// Get returns the value for key and whether one is present.
func (f *NullableMemoizedFunction[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	var zero V
	c := f.cellFor(key)
	v, recursive, err := f.m.access(ctx, c, func(ctx context.Context) (any, error) {
		value, ok, err := f.compute(ctx, key)
		return optional[V]{value: value, ok: ok}, err
	})
	if err != nil {
		return zero, false, err
	}
	if recursive {
		if err := f.m.onRecursion(c.label, f.cfg.tolerant); err != nil {
			return zero, false, err
		}
		return f.cfg.onRecursion, f.cfg.tolerant, nil
	}
	opt := v.(optional[V])
	return opt.value, opt.ok, nil
}

// IsComputed reports whether key has a cached result.
func (f *NullableMemoizedFunction[K, V]) IsComputed(key K) bool {
	f.mu.Lock()
	c, ok := f.cells[key]
	f.mu.Unlock()
	return ok && f.m.isComputed(c)
}
