// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package cache provides caching for analysis results.
//
// Three tiers are offered and may be used side by side:
//   - DiskCache persists byte payloads with a TTL and a JSON side-car index.
//   - FileCache keys results by the content hash of a source file, so an
//     edit to the file naturally misses.
//   - MemoryCache is a bounded in-process LRU.
//
// Memoizer wraps an arbitrary function so its results are read from and
// written to a DiskCache. Caching is best-effort: environmental failures
// (unreadable files, full disks, corrupt payloads) degrade to a miss or a
// dropped write, while invalid arguments are returned as errors.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is the cache interface.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Entry is the index record kept for one DiskCache key. The JSON names match
// the metadata.json written by earlier versions of the tool.
type Entry struct {
	// CreatedAt is the wall-clock time of the last write, in epoch seconds.
	CreatedAt float64 `json:"timestamp"`
	// TTLSeconds is the lifetime of the entry.
	TTLSeconds int64 `json:"ttl"`
	// SizeBytes is the payload length. Reporting only.
	SizeBytes int64 `json:"size"`
}

// Created returns CreatedAt as a time.Time.
func (e Entry) Created() time.Time {
	sec := int64(e.CreatedAt)
	nsec := int64((e.CreatedAt - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// Expired reports whether the entry is dead at now: now - createdAt > ttl.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.Created()) > time.Duration(e.TTLSeconds)*time.Second
}

// Stats summarizes a DiskCache without touching payload files.
type Stats struct {
	Entries    int    `json:"total_entries"`
	TotalBytes int64  `json:"total_size_bytes"`
	Directory  string `json:"cache_dir"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
}

// Codec turns values into payload bytes and back.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec is the default Codec. Values must be JSON-representable.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// CacheError represents a cache error.
type CacheError struct {
	Code string
}

func (e *CacheError) Error() string {
	return e.Code
}

// ErrCacheMiss is returned by Get when no live entry exists.
var ErrCacheMiss = &CacheError{Code: "CACHE_MISS"}

const (
	tierDisk   = "disk"
	tierFile   = "file"
	tierMemory = "memory"
)
