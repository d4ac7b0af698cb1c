// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
)

// DefaultMemoryMaxEntries bounds a MemoryCache when no size is configured.
const DefaultMemoryMaxEntries = 1000

// MemoryCache is an in-memory cache bounded to maxSize entries with strict
// least-recently-used eviction. Get and Set both count as a use. It is safe
// for concurrent use within one process and is never persisted.
type MemoryCache[V any] struct {
	mu       sync.Mutex
	lru      *simplelru.LRU[string, V]
	maxSize  int
	removing bool
	metrics  *observability.Metrics
}

// NewMemoryCache creates a new memory cache holding at most maxSize entries.
func NewMemoryCache[V any](maxSize int, opts ...Option) (*MemoryCache[V], error) {
	if maxSize <= 0 {
		return nil, cerrors.ValidationError("memory cache size must be positive", nil).
			WithContext("max_size", maxSize)
	}
	o := applyOptions(opts)

	m := &MemoryCache[V]{
		maxSize: maxSize,
		metrics: o.metrics,
	}
	l, err := simplelru.NewLRU[string, V](maxSize, m.onEvict)
	if err != nil {
		return nil, cerrors.ValidationError("memory cache size must be positive", err)
	}
	m.lru = l
	return m, nil
}

// Get retrieves a value and marks it most recently used.
func (m *MemoryCache[V]) Get(key string) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.lru.Get(key)
	m.metrics.RecordCacheHit(tierMemory, ok)
	return v, ok
}

// Set stores a value and marks it most recently used. When the cache is full
// and key is new, exactly the least recently used entry is evicted.
func (m *MemoryCache[V]) Set(key string, value V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lru.Add(key, value)
}

// Delete removes a value. It reports whether the key was present.
func (m *MemoryCache[V]) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removing = true
	defer func() { m.removing = false }()
	return m.lru.Remove(key)
}

// Len returns the number of entries.
func (m *MemoryCache[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// MaxSize returns the capacity.
func (m *MemoryCache[V]) MaxSize() int {
	return m.maxSize
}

// Keys returns the keys from least to most recently used.
func (m *MemoryCache[V]) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Keys()
}

// Clear removes all entries from cache.
func (m *MemoryCache[V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removing = true
	defer func() { m.removing = false }()
	m.lru.Purge()
}

// onEvict runs with m.mu held. Removals requested by the caller are not
// evictions.
func (m *MemoryCache[V]) onEvict(string, V) {
	if m.removing {
		return
	}
	m.metrics.RecordEviction(tierMemory)
}
