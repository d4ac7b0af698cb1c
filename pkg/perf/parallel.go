// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package perf provides bounded fan-out helpers for file hashing and other
// per-file work.
package perf

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds fan-out when the caller passes zero.
func DefaultConcurrency() int {
	return runtime.GOMAXPROCS(0)
}

// Map applies fn to each item with at most concurrency calls in flight.
// Results keep the order of items. The first error cancels the remaining
// work and is returned with the index of the failing item.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error), concurrency int) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency()
	}

	results := make([]R, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return fmt.Errorf("error at index %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
