// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
)

// Args are the arguments of a memoized call. Named arguments are keyed by
// name, so the order they were supplied in never affects the cache key.
type Args struct {
	Positional []any
	Named      map[string]any
}

// Positional builds Args from positional values only.
func Positional(values ...any) Args {
	return Args{Positional: values}
}

// Caller is a computation that can be memoized.
type Caller[R any] interface {
	Call(ctx context.Context, args Args) (R, error)
}

// Func adapts a plain function to Caller.
type Func[R any] func(ctx context.Context, args Args) (R, error)

// Call calls f.
func (f Func[R]) Call(ctx context.Context, args Args) (R, error) {
	return f(ctx, args)
}

// Memoizer reads and writes memoized results through a DiskCache.
type Memoizer struct {
	store  *DiskCache
	ttl    time.Duration
	keyFn  KeyFunc
	logger observability.Logger
	group  singleflight.Group
}

// NewMemoizer creates a memoizer over store. WithTTL and WithKeyFunc set the
// defaults for every wrapped function.
func NewMemoizer(store *DiskCache, opts ...Option) (*Memoizer, error) {
	if store == nil {
		return nil, cerrors.ValidationError("memoizer needs a disk cache", nil)
	}
	o := applyOptions(opts)
	if o.ttl < 0 {
		return nil, cerrors.ValidationError("ttl must not be negative", nil).WithContext("ttl", o.ttl)
	}

	return &Memoizer{
		store:  store,
		ttl:    o.ttl,
		keyFn:  o.keyFn,
		logger: o.logger.With(observability.String("component", "memoizer")),
	}, nil
}

// CachingCaller decorates a Caller so that successful results are served
// from the cache. Failures are returned unchanged and never cached.
type CachingCaller[R any] struct {
	m     *Memoizer
	name  string
	inner Caller[R]
	ttl   time.Duration
	keyFn KeyFunc
}

var _ Caller[int] = (*CachingCaller[int])(nil)

// NewCachingCaller wraps inner. name identifies the function in the key and
// must be stable across runs. WithTTL and WithKeyFunc override the
// memoizer's defaults for this function only.
func NewCachingCaller[R any](m *Memoizer, name string, inner Caller[R], opts ...Option) (*CachingCaller[R], error) {
	if m == nil || inner == nil {
		return nil, cerrors.ValidationError("memoizer and function must not be nil", nil)
	}
	if name == "" {
		return nil, cerrors.ValidationError("function name must not be empty", nil)
	}

	o := options{ttl: m.ttl, keyFn: m.keyFn}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ttl < 0 {
		return nil, cerrors.ValidationError("ttl must not be negative", nil).
			WithContext("function", name).WithContext("ttl", o.ttl)
	}

	return &CachingCaller[R]{
		m:     m,
		name:  name,
		inner: inner,
		ttl:   o.ttl,
		keyFn: o.keyFn,
	}, nil
}

// Call returns the cached result for args, or calls the wrapped function and
// caches what it returns. Concurrent calls with the same key share one
// invocation.
func (c *CachingCaller[R]) Call(ctx context.Context, args Args) (R, error) {
	key := c.keyFn(c.name, args.Positional, args.Named)

	var cached R
	ok, err := c.m.store.GetJSON(ctx, key, &cached)
	if err != nil {
		c.m.logger.Debug("cache lookup failed, computing",
			observability.String("function", c.name), observability.Err(err))
	}
	if ok {
		return cached, nil
	}

	v, err, _ := c.m.group.Do(key, func() (any, error) {
		// A flight that finished after our lookup has already stored it.
		var stored R
		if ok, _ := c.m.store.GetJSON(ctx, key, &stored); ok {
			return stored, nil
		}

		result, err := c.inner.Call(ctx, args)
		if err != nil {
			return nil, err
		}
		if err := c.m.store.SetJSON(ctx, key, result, c.ttl); err != nil {
			c.m.logger.Error("result not cached",
				observability.String("function", c.name), observability.Err(err))
		}
		return result, nil
	})
	if err != nil {
		var zero R
		return zero, err
	}
	result, ok := v.(R)
	if !ok {
		// The flight was led by a caller with another result type under the
		// same key.
		return c.inner.Call(ctx, args)
	}
	return result, nil
}

// Wrap returns fn memoized through m. See NewCachingCaller.
func Wrap[R any](m *Memoizer, name string, fn Func[R], opts ...Option) (Func[R], error) {
	if fn == nil {
		return nil, cerrors.ValidationError("function must not be nil", nil)
	}
	c, err := NewCachingCaller[R](m, name, fn, opts...)
	if err != nil {
		return nil, err
	}
	return c.Call, nil
}

// Wrap1 memoizes a single-argument function.
func Wrap1[A, R any](m *Memoizer, name string, fn func(context.Context, A) (R, error), opts ...Option) (func(context.Context, A) (R, error), error) {
	if fn == nil {
		return nil, cerrors.ValidationError("function must not be nil", nil)
	}
	inner := Func[R](func(ctx context.Context, args Args) (R, error) {
		a, _ := args.Positional[0].(A)
		return fn(ctx, a)
	})
	c, err := NewCachingCaller[R](m, name, inner, opts...)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, a A) (R, error) {
		return c.Call(ctx, Positional(a))
	}, nil
}
