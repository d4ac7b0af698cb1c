// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"time"

	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = time.Hour

// Option configures a DiskCache, FileCache, MemoryCache or Memoizer.
// Options that do not apply to a type are ignored by it.
type Option func(*options)

type options struct {
	ttl     time.Duration
	codec   Codec
	now     func() time.Time
	keyFn   KeyFunc
	logger  observability.Logger
	metrics *observability.Metrics
}

func defaultOptions() options {
	return options{
		ttl:    DefaultTTL,
		codec:  JSONCodec{},
		now:    time.Now,
		keyFn:  FromCall,
		logger: observability.NopLogger(),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithTTL sets the default TTL of a DiskCache or the TTL a Memoizer writes
// with. Zero keeps the current default; negative values are rejected by the
// constructor.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl != 0 {
			o.ttl = ttl
		}
	}
}

// WithCodec replaces the JSON codec used for typed values.
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithClock replaces time.Now. Used by tests to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithKeyFunc replaces FromCall as the Memoizer key derivation.
func WithKeyFunc(fn KeyFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.keyFn = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// ttlSeconds converts a TTL to the whole seconds stored in the index,
// rounding up so a sub-second TTL never becomes zero.
func ttlSeconds(ttl time.Duration) int64 {
	s := int64(ttl / time.Second)
	if ttl%time.Second != 0 {
		s++
	}
	return s
}
