// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "cicd_cache"

// Metrics provides cache metrics collection. A nil *Metrics is valid and
// records nothing, so caches can be built without one.
type Metrics struct {
	registry *prometheus.Registry

	lookups       *prometheus.CounterVec
	evictions     *prometheus.CounterVec
	writeFailures *prometheus.CounterVec
	storedBytes   *prometheus.GaugeVec
}

// NewMetrics creates a new metrics collector with its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lookups_total",
			Help:      "Cache lookups by tier and result (hit or miss).",
		}, []string{"tier", "result"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evictions_total",
			Help:      "Entries removed because they expired, were corrupt, or were evicted for capacity.",
		}, []string{"tier"}),
		writeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "write_failures_total",
			Help:      "Cache writes dropped because of an I/O error.",
		}, []string{"tier"}),
		storedBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "stored_bytes",
			Help:      "Payload bytes tracked by the tier's index.",
		}, []string{"tier"}),
	}

	m.registry.MustRegister(m.lookups, m.evictions, m.writeFailures, m.storedBytes)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordCacheHit records a cache hit/miss.
func (m *Metrics) RecordCacheHit(tier string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(tier, result).Inc()
}

// RecordEviction records the removal of one entry.
func (m *Metrics) RecordEviction(tier string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(tier).Inc()
}

// RecordWriteFailure records a dropped write.
func (m *Metrics) RecordWriteFailure(tier string) {
	if m == nil {
		return
	}
	m.writeFailures.WithLabelValues(tier).Inc()
}

// SetStoredBytes publishes the current payload size of a tier.
func (m *Metrics) SetStoredBytes(tier string, n int64) {
	if m == nil {
		return
	}
	m.storedBytes.WithLabelValues(tier).Set(float64(n))
}
