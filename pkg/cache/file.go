// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/perf"
)

const resultSuffix = ".json"

// FileCache stores per-file analysis results under <kind>_<contentHash>.json.
// There is no TTL and no index: editing the file changes its hash, so the
// old result simply stops being found. Old results stay on disk until
// Invalidate (for the current content) or Sweep (for everything else).
type FileCache struct {
	dir     string
	codec   Codec
	logger  observability.Logger
	metrics *observability.Metrics
}

// NewFileCache creates a file cache rooted at dir.
func NewFileCache(dir string, opts ...Option) (*FileCache, error) {
	if dir == "" {
		return nil, cerrors.ValidationError("cache directory must not be empty", nil)
	}
	o := applyOptions(opts)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerrors.StorageError("failed to create cache directory", err).
			WithContext("dir", dir)
	}

	return &FileCache{
		dir:     dir,
		codec:   o.codec,
		logger:  o.logger.With(observability.String("tier", tierFile), observability.String("dir", dir)),
		metrics: o.metrics,
	}, nil
}

// Dir returns the cache directory.
func (f *FileCache) Dir() string {
	return f.dir
}

// ContentHash returns the hex SHA-256 of the file's bytes, or "" if the
// file cannot be read. An empty hash means the file is uncachable.
func (f *FileCache) ContentHash(filePath string) string {
	return contentHash(filePath)
}

func contentHash(filePath string) string {
	file, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer func() { _ = file.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get decodes the result of kind for the current content of filePath into
// out. It reports false when there is no result, the file is unreadable, or
// the stored result does not decode.
func (f *FileCache) Get(ctx context.Context, filePath, kind string, out any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := validateKind(kind); err != nil {
		return false, err
	}

	hash := contentHash(filePath)
	if hash == "" {
		f.metrics.RecordCacheHit(tierFile, false)
		return false, nil
	}

	data, err := os.ReadFile(f.resultPath(kind, hash))
	if err != nil {
		f.metrics.RecordCacheHit(tierFile, false)
		return false, nil
	}
	if err := f.codec.Unmarshal(data, out); err != nil {
		f.logger.Debug("unparsable analysis result",
			observability.String("file", filePath), observability.String("kind", kind), observability.Err(err))
		f.metrics.RecordCacheHit(tierFile, false)
		return false, nil
	}

	f.metrics.RecordCacheHit(tierFile, true)
	return true, nil
}

// Set stores the result of kind for the current content of filePath.
// Unreadable files are skipped and disk failures dropped; only invalid
// arguments and unencodable values return an error.
func (f *FileCache) Set(ctx context.Context, filePath, kind string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKind(kind); err != nil {
		return err
	}

	data, err := f.codec.Marshal(value)
	if err != nil {
		return cerrors.ValidationError("analysis result is not encodable", err).
			WithContext("kind", kind)
	}

	hash := contentHash(filePath)
	if hash == "" {
		f.logger.Debug("source file unreadable, not caching", observability.String("file", filePath))
		return nil
	}

	path := f.resultPath(kind, hash)
	if err := writeFileAtomic(path, data); err != nil {
		f.logger.Warn("failed to write analysis result",
			observability.String("path", path), observability.Err(cerrors.StorageError("write result", err)))
		f.metrics.RecordWriteFailure(tierFile)
	}
	return nil
}

// Invalidate removes every result stored for the current content of
// filePath and returns how many were removed. Results for earlier content
// of the file are not reachable from here; use Sweep.
func (f *FileCache) Invalidate(ctx context.Context, filePath string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	hash := contentHash(filePath)
	if hash == "" {
		return 0, nil
	}

	// Listed rather than globbed: the directory name may contain pattern
	// metacharacters.
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		f.logger.Warn("failed to list cache directory", observability.Err(err))
		return 0, nil
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if h, ok := resultHash(e.Name()); !ok || h != hash {
			continue
		}
		path := filepath.Join(f.dir, e.Name())
		if err := removeIfExists(path); err != nil {
			f.logger.Warn("failed to delete analysis result",
				observability.String("path", path), observability.Err(err))
			continue
		}
		f.metrics.RecordEviction(tierFile)
		removed++
	}
	return removed, nil
}

// Sweep removes every result whose content hash does not match the current
// content of any file in tracked. Unreadable tracked files protect nothing.
// Files in the directory that are not results are left alone.
func (f *FileCache) Sweep(ctx context.Context, tracked []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	hashes, err := perf.Map(ctx, tracked, func(_ context.Context, path string) (string, error) {
		return contentHash(path), nil
	}, 0)
	if err != nil {
		return 0, err
	}
	live := make(map[string]struct{}, len(hashes))
	for _, hash := range hashes {
		if hash != "" {
			live[hash] = struct{}{}
		}
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		f.logger.Warn("failed to list cache directory", observability.Err(err))
		return 0, nil
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		hash, ok := resultHash(e.Name())
		if !ok {
			continue
		}
		if _, keep := live[hash]; keep {
			continue
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		path := filepath.Join(f.dir, e.Name())
		if err := removeIfExists(path); err != nil {
			f.logger.Warn("failed to delete orphaned result",
				observability.String("path", path), observability.Err(err))
			continue
		}
		f.metrics.RecordEviction(tierFile)
		removed++
	}

	if removed > 0 {
		f.logger.Info("orphaned results removed", observability.Int("count", removed))
	}
	return removed, nil
}

// Stats counts the results on disk. Hits and misses are not tracked for
// this tier.
func (f *FileCache) Stats() Stats {
	st := Stats{Directory: f.dir}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		f.logger.Warn("failed to list cache directory", observability.Err(err))
		return st
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := resultHash(e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		st.Entries++
		st.TotalBytes += info.Size()
	}
	f.metrics.SetStoredBytes(tierFile, st.TotalBytes)
	return st
}

func (f *FileCache) resultPath(kind, hash string) string {
	return filepath.Join(f.dir, ForFile(kind, hash)+resultSuffix)
}

// resultHash extracts the content hash from a result file name.
func resultHash(name string) (string, bool) {
	if isTempFile(name) || !strings.HasSuffix(name, resultSuffix) {
		return "", false
	}
	stem := strings.TrimSuffix(name, resultSuffix)
	i := strings.LastIndex(stem, "_")
	if i <= 0 {
		return "", false
	}
	hash := stem[i+1:]
	if len(hash) != sha256.Size*2 || !isHexDigest(hash) {
		return "", false
	}
	return hash, true
}

// validateKind rejects labels that cannot be part of a file name.
func validateKind(kind string) error {
	if kind == "" {
		return cerrors.ValidationError("analysis kind must not be empty", nil)
	}
	if strings.ContainsAny(kind, `/\`+"\x00") || kind == "." || kind == ".." {
		return cerrors.ValidationError("analysis kind must be a plain name", nil).
			WithContext("kind", kind)
	}
	return nil
}
