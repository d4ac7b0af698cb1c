// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package context provides signal-aware contexts for cache maintenance
// commands, so an interrupted sweep stops between files instead of being
// killed mid-write.
package context

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"
)

type signalContext struct {
	context.Context

	cancel   context.CancelFunc
	stopOnce sync.Once
	stopCh   chan struct{}
	sigCh    chan os.Signal
}

func (sc *signalContext) stop() {
	sc.stopOnce.Do(func() {
		signal.Stop(sc.sigCh)
		sc.cancel()
		close(sc.stopCh)
	})
}

func (sc *signalContext) watch() {
	select {
	case <-sc.sigCh:
		sc.cancel()
	case <-sc.stopCh:
	case <-sc.Context.Done():
	}
}

func newSignalContext(ctx context.Context, cancel context.CancelFunc, sigs []os.Signal) (context.Context, context.CancelFunc) {
	sc := &signalContext{
		Context: ctx,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
		sigCh:   make(chan os.Signal, len(sigs)+1),
	}
	signal.Notify(sc.sigCh, sigs...)
	go sc.watch()
	return sc, sc.stop
}

// WithSignal returns a context cancelled when one of sigs arrives. The
// returned cancel func must be called to stop listening.
//
//	ctx, cancel := WithSignal(context.Background(), os.Interrupt)
//	defer cancel()
func WithSignal(parent context.Context, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return newSignalContext(ctx, cancel, sigs)
}

// WithSignalTimeout is WithSignal with a deadline. A zero timeout means no
// deadline.
func WithSignalTimeout(parent context.Context, timeout time.Duration, sigs ...os.Signal) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return WithSignal(parent, sigs...)
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	return newSignalContext(ctx, cancel, sigs)
}
