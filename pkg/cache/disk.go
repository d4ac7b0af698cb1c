// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
)

const (
	indexFileName = "metadata.json"
	lockFileName  = "metadata.lock"
	payloadSuffix = ".cache"
)

// DiskCache is a disk-based cache. Each key has a payload file
// <fileKey>.cache and a record in metadata.json; the index alone decides
// expiry. Expired entries are only removed when read or when CleanupExpired
// runs.
type DiskCache struct {
	mu  sync.Mutex
	dir string

	defaultTTL time.Duration
	codec      Codec
	now        func() time.Time
	logger     observability.Logger
	metrics    *observability.Metrics

	index     map[string]Entry
	indexMod  time.Time
	indexSize int64

	hits   int64
	misses int64
}

var _ Cache = (*DiskCache)(nil)

// NewDiskCache opens (creating if needed) a disk cache rooted at dir.
// A missing or corrupt metadata.json is a cold start, not an error.
func NewDiskCache(dir string, opts ...Option) (*DiskCache, error) {
	if dir == "" {
		return nil, cerrors.ValidationError("cache directory must not be empty", nil)
	}
	o := applyOptions(opts)
	if o.ttl < 0 {
		return nil, cerrors.ValidationError("default ttl must not be negative", nil).
			WithContext("ttl", o.ttl)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.StorageError("failed to create cache directory", err).
			WithContext("dir", dir)
	}

	d := &DiskCache{
		dir:        dir,
		defaultTTL: o.ttl,
		codec:      o.codec,
		now:        o.now,
		logger:     o.logger.With(observability.String("tier", tierDisk), observability.String("dir", dir)),
		metrics:    o.metrics,
		index:      make(map[string]Entry),
	}
	d.refreshLocked()
	d.metrics.SetStoredBytes(tierDisk, d.totalBytesLocked())
	return d, nil
}

// Dir returns the cache directory.
func (d *DiskCache) Dir() string {
	return d.dir
}

// Get retrieves a payload. It returns ErrCacheMiss when the key is unknown,
// expired, or its payload is gone; the stale side is removed in passing.
func (d *DiskCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, cerrors.ValidationError("cache key must not be empty", nil)
	}

	data, _, err := d.get(key)
	return data, err
}

func (d *DiskCache) get(key string) ([]byte, Entry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, entry, ok := d.getLocked(key)
	d.metrics.RecordCacheHit(tierDisk, ok)
	if !ok {
		d.misses++
		return nil, Entry{}, ErrCacheMiss
	}
	d.hits++
	return data, entry, nil
}

func (d *DiskCache) getLocked(key string) ([]byte, Entry, bool) {
	entry, ok := d.index[key]
	if !ok {
		// Another process may have written it since we last looked.
		d.refreshLocked()
		entry, ok = d.index[key]
	}
	if !ok {
		_ = removeIfExists(d.payloadPath(key))
		return nil, Entry{}, false
	}

	if entry.Expired(d.now()) {
		d.logger.Debug("entry expired", observability.String("key", key))
		d.metrics.RecordEviction(tierDisk)
		d.removeEntryLocked(key)
		return nil, Entry{}, false
	}

	data, err := os.ReadFile(d.payloadPath(key))
	if err != nil {
		d.logger.Debug("payload unreadable, dropping record",
			observability.String("key", key), observability.Err(err))
		d.removeEntryLocked(key)
		return nil, Entry{}, false
	}
	return data, entry, true
}

// Set stores a payload. ttl == 0 uses the default TTL; a negative ttl is
// rejected. Disk failures are logged and the write is dropped.
func (d *DiskCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cerrors.ValidationError("cache key must not be empty", nil)
	}
	if ttl < 0 {
		return cerrors.ValidationError("ttl must not be negative", nil).WithContext("ttl", ttl)
	}
	if ttl == 0 {
		ttl = d.defaultTTL
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	path := d.payloadPath(key)
	if err := writeFileAtomic(path, value); err != nil {
		d.logger.Warn("failed to write cache payload",
			observability.String("key", key), observability.Err(cerrors.StorageError("write payload", err)))
		d.metrics.RecordWriteFailure(tierDisk)
		return nil
	}

	entry := Entry{
		CreatedAt:  epochSeconds(d.now()),
		TTLSeconds: ttlSeconds(ttl),
		SizeBytes:  int64(len(value)),
	}
	d.commitLocked(func(index map[string]Entry) bool {
		index[key] = entry
		return true
	})
	return nil
}

// Delete removes a payload and its record.
func (d *DiskCache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return cerrors.ValidationError("cache key must not be empty", nil)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.removeEntryLocked(key)
	return nil
}

// Clear removes every payload file and empties the index.
func (d *DiskCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.commitLocked(func(index map[string]Entry) bool {
		entries, err := os.ReadDir(d.dir)
		if err != nil {
			d.logger.Warn("failed to list cache directory", observability.Err(err))
		}
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !(strings.HasSuffix(name, payloadSuffix) || isTempFile(name)) {
				continue
			}
			path := filepath.Join(d.dir, name)
			if err := removeIfExists(path); err != nil {
				// Log but continue - cache cleanup is not critical
				d.logger.Warn("failed to delete cache file",
					observability.String("path", path), observability.Err(err))
			}
		}
		for key := range index {
			delete(index, key)
		}
		return true
	})
	return nil
}

// CleanupExpired deletes every entry expired as of now and returns how many
// were removed. It never runs on its own; callers that need bounded disk
// usage schedule it.
func (d *DiskCache) CleanupExpired(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	removed := 0
	var freed int64
	d.commitLocked(func(index map[string]Entry) bool {
		now := d.now()
		for key, entry := range index {
			if !entry.Expired(now) {
				continue
			}
			if err := removeIfExists(d.payloadPath(key)); err != nil {
				d.logger.Warn("failed to delete expired payload",
					observability.String("key", key), observability.Err(err))
			}
			delete(index, key)
			d.metrics.RecordEviction(tierDisk)
			removed++
			freed += entry.SizeBytes
		}
		return removed > 0
	})

	if removed > 0 {
		d.logger.Info("expired entries removed",
			observability.Int("count", removed), observability.Int64("bytes", freed))
	}
	return removed, nil
}

// Stats aggregates the index without touching payload files.
func (d *DiskCache) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := Stats{
		Entries:    len(d.index),
		TotalBytes: d.totalBytesLocked(),
		Directory:  d.dir,
		Hits:       d.hits,
		Misses:     d.misses,
	}
	d.metrics.SetStoredBytes(tierDisk, st.TotalBytes)
	return st
}

// GetJSON reads key and decodes it into out. A payload that fails to decode
// is treated as a miss and removed.
func (d *DiskCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if key == "" {
		return false, cerrors.ValidationError("cache key must not be empty", nil)
	}

	data, entry, err := d.get(key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := d.codec.Unmarshal(data, out); err != nil {
		d.logger.Warn("corrupt cache payload, dropping entry",
			observability.String("key", key), observability.Err(cerrors.CodecError("decode payload", err)))
		d.metrics.RecordEviction(tierDisk)
		d.mu.Lock()
		d.hits--
		d.misses++
		d.removeEntryIfUnchangedLocked(key, entry)
		d.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// SetJSON encodes v and stores it. A value the codec cannot encode is a
// caller error and is returned.
func (d *DiskCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := d.codec.Marshal(v)
	if err != nil {
		return cerrors.ValidationError("value is not encodable", err).WithContext("key", key)
	}
	return d.Set(ctx, key, data, ttl)
}

// removeEntryLocked deletes the payload (ignoring a missing file) and the
// record, persisting the index only if the record existed.
func (d *DiskCache) removeEntryLocked(key string) {
	if err := removeIfExists(d.payloadPath(key)); err != nil {
		d.logger.Warn("failed to delete cache payload",
			observability.String("key", key), observability.Err(err))
	}
	d.commitLocked(func(index map[string]Entry) bool {
		if _, ok := index[key]; !ok {
			return false
		}
		delete(index, key)
		return true
	})
}

// commitLocked applies a mutation to the index and persists it. The
// cross-process lock is held while the on-disk index is re-read, mutated and
// written back, so concurrent processes do not drop each other's records.
// removeEntryIfUnchangedLocked drops key only while its record still equals
// seen. The payload was decoded outside the lock, so a newer Set may have
// replaced it in the meantime.
func (d *DiskCache) removeEntryIfUnchangedLocked(key string, seen Entry) {
	d.commitLocked(func(index map[string]Entry) bool {
		if cur, ok := index[key]; !ok || cur != seen {
			return false
		}
		if err := removeIfExists(d.payloadPath(key)); err != nil {
			d.logger.Warn("failed to delete cache payload",
				observability.String("key", key), observability.Err(err))
		}
		delete(index, key)
		return true
	})
}

func (d *DiskCache) commitLocked(apply func(index map[string]Entry) bool) {
	unlock, err := lockFile(filepath.Join(d.dir, lockFileName))
	if err != nil {
		d.logger.Warn("failed to lock cache index", observability.Err(err))
		unlock = func() {}
	}
	defer unlock()

	// Re-read unconditionally: mtime granularity can hide a same-size write.
	d.indexMod = time.Time{}
	d.refreshLocked()
	if !apply(d.index) {
		return
	}
	d.metrics.SetStoredBytes(tierDisk, d.totalBytesLocked())

	if err := d.writeIndexLocked(); err != nil {
		d.logger.Warn("failed to persist cache index",
			observability.Err(cerrors.StorageError("write index", err)))
		d.metrics.RecordWriteFailure(tierDisk)
	}
}

// refreshLocked reloads metadata.json if it changed on disk since it was
// last read or written by this instance.
func (d *DiskCache) refreshLocked() {
	info, err := os.Stat(d.indexPath())
	if err != nil {
		return
	}
	if info.ModTime().Equal(d.indexMod) && info.Size() == d.indexSize {
		return
	}

	data, err := os.ReadFile(d.indexPath())
	if err != nil {
		d.logger.Warn("failed to read cache index", observability.Err(err))
		return
	}
	index := make(map[string]Entry)
	if err := json.Unmarshal(data, &index); err != nil {
		d.logger.Warn("corrupt cache index, starting cold",
			observability.Err(cerrors.CodecError("decode index", err)))
		index = make(map[string]Entry)
	}
	d.index = index
	d.indexMod = info.ModTime()
	d.indexSize = info.Size()
}

func (d *DiskCache) writeIndexLocked() error {
	data, err := json.MarshalIndent(d.index, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(d.indexPath(), data); err != nil {
		return err
	}
	if info, err := os.Stat(d.indexPath()); err == nil {
		d.indexMod = info.ModTime()
		d.indexSize = info.Size()
	}
	return nil
}

func (d *DiskCache) totalBytesLocked() int64 {
	var total int64
	for _, e := range d.index {
		total += e.SizeBytes
	}
	return total
}

func (d *DiskCache) indexPath() string {
	return filepath.Join(d.dir, indexFileName)
}

func (d *DiskCache) payloadPath(key string) string {
	return filepath.Join(d.dir, fileKey(key)+payloadSuffix)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}
