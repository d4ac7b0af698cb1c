package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
)

type lintResult struct {
	Issues []string `json:"issues"`
	Score  float64  `json:"score"`
}

func newTestFileCache(t *testing.T) (*FileCache, string) {
	t.Helper()
	fc, err := NewFileCache(filepath.Join(t.TempDir(), "file-cache"))
	require.NoError(t, err)
	return fc, t.TempDir()
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFileCacheContentHash(t *testing.T) {
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	hash := fc.ContentHash(path)
	assert.Len(t, hash, 64)
	assert.Equal(t, FromSemantic("package main\n"), hash)

	assert.Equal(t, "", fc.ContentHash(filepath.Join(src, "missing.go")))
	assert.Equal(t, "", fc.ContentHash(src), "directories are unreadable as files")
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	want := lintResult{Issues: []string{"E501 line too long"}, Score: 0.75}
	require.NoError(t, fc.Set(ctx, path, "lint", want))

	var got lintResult
	ok, err := fc.Get(ctx, path, "lint", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	assert.FileExists(t, filepath.Join(fc.Dir(), "lint_"+fc.ContentHash(path)+".json"))

	ok, err = fc.Get(ctx, path, "coverage", &got)
	require.NoError(t, err)
	assert.False(t, ok, "kinds are cached separately")
}

func TestFileCacheContentChangeMisses(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "util.py")

	writeSource(t, path, "x = 1\n")
	oldHash := fc.ContentHash(path)
	require.NoError(t, fc.Set(ctx, path, "coverage", map[string]int{"lines": 1}))

	writeSource(t, path, "x = 2\n")
	var got map[string]int
	ok, err := fc.Get(ctx, path, "coverage", &got)
	require.NoError(t, err)
	assert.False(t, ok)

	oldEntry := filepath.Join(fc.Dir(), "coverage_"+oldHash+".json")
	assert.FileExists(t, oldEntry, "the old entry stays until invalidated or swept")

	writeSource(t, path, "x = 1\n")
	ok, err = fc.Get(ctx, path, "coverage", &got)
	require.NoError(t, err)
	assert.True(t, ok, "restoring the content finds the old result again")
}

func TestFileCacheInvalidate(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	other := filepath.Join(src, "other.go")
	writeSource(t, path, "package main\n")
	writeSource(t, other, "package other\n")

	require.NoError(t, fc.Set(ctx, path, "lint", lintResult{Score: 1}))
	require.NoError(t, fc.Set(ctx, path, "coverage", lintResult{Score: 0.5}))
	require.NoError(t, fc.Set(ctx, other, "lint", lintResult{Score: 0.2}))

	removed, err := fc.Invalidate(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	var got lintResult
	ok, _ := fc.Get(ctx, path, "lint", &got)
	assert.False(t, ok)
	ok, _ = fc.Get(ctx, other, "lint", &got)
	assert.True(t, ok, "other files are untouched")

	removed, err = fc.Invalidate(ctx, filepath.Join(src, "missing.go"))
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestFileCacheInvalidateDirWithPatternChars(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	for _, name := range []string{"cache[1]", "ci*run", "what?"} {
		t.Run(name, func(t *testing.T) {
			fc, err := NewFileCache(filepath.Join(t.TempDir(), name))
			require.NoError(t, err)

			require.NoError(t, fc.Set(ctx, path, "lint", lintResult{Score: 1}))
			require.NoError(t, fc.Set(ctx, path, "coverage", lintResult{Score: 0.5}))

			removed, err := fc.Invalidate(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			var got lintResult
			ok, _ := fc.Get(ctx, path, "lint", &got)
			assert.False(t, ok)
			assert.Zero(t, fc.Stats().Entries)
		})
	}
}

func TestFileCacheInvalidateOnlyCurrentContent(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")

	writeSource(t, path, "v1")
	oldHash := fc.ContentHash(path)
	require.NoError(t, fc.Set(ctx, path, "lint", lintResult{}))

	writeSource(t, path, "v2")
	removed, err := fc.Invalidate(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.FileExists(t, filepath.Join(fc.Dir(), "lint_"+oldHash+".json"))
}

func TestFileCacheSweep(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	a := filepath.Join(src, "a.go")
	b := filepath.Join(src, "b.go")

	writeSource(t, a, "a1")
	require.NoError(t, fc.Set(ctx, a, "lint", lintResult{}))
	writeSource(t, a, "a2")
	require.NoError(t, fc.Set(ctx, a, "lint", lintResult{}))
	writeSource(t, a, "a3")
	require.NoError(t, fc.Set(ctx, a, "lint", lintResult{}))
	require.NoError(t, fc.Set(ctx, a, "coverage", lintResult{}))

	writeSource(t, b, "b1")
	require.NoError(t, fc.Set(ctx, b, "lint", lintResult{}))
	require.NoError(t, os.Remove(b))

	unrelated := filepath.Join(fc.Dir(), "notes_readme.json")
	writeSource(t, unrelated, "{}")

	removed, err := fc.Sweep(ctx, []string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 3, removed, "two stale versions of a.go and the deleted b.go")

	var got lintResult
	ok, _ := fc.Get(ctx, a, "lint", &got)
	assert.True(t, ok)
	ok, _ = fc.Get(ctx, a, "coverage", &got)
	assert.True(t, ok)
	assert.FileExists(t, unrelated)
}

func TestFileCacheUnreadableSource(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	missing := filepath.Join(src, "missing.go")

	require.NoError(t, fc.Set(ctx, missing, "lint", lintResult{}))
	entries, err := os.ReadDir(fc.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "uncachable files write nothing")

	var got lintResult
	ok, err := fc.Get(ctx, missing, "lint", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCacheCorruptResult(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	require.NoError(t, fc.Set(ctx, path, "lint", lintResult{}))
	writeSource(t, filepath.Join(fc.Dir(), "lint_"+fc.ContentHash(path)+".json"), "{truncated")

	var got lintResult
	ok, err := fc.Get(ctx, path, "lint", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileCacheWriteFailureIsAbsorbed(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	target := filepath.Join(fc.Dir(), "lint_"+fc.ContentHash(path)+".json")
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

	assert.NoError(t, fc.Set(ctx, path, "lint", lintResult{}))
}

func TestFileCacheValidation(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	for _, kind := range []string{"", "../escape", `a\b`, ".."} {
		err := fc.Set(ctx, path, kind, lintResult{})
		assert.True(t, cerrors.IsType(err, cerrors.ErrValidation), "kind %q", kind)

		_, err = fc.Get(ctx, path, kind, &lintResult{})
		assert.True(t, cerrors.IsType(err, cerrors.ErrValidation), "kind %q", kind)
	}

	err := fc.Set(ctx, path, "lint", func() {})
	assert.True(t, cerrors.IsType(err, cerrors.ErrValidation))

	_, err = NewFileCache("")
	assert.True(t, cerrors.IsType(err, cerrors.ErrValidation))
}

func TestFileCacheStats(t *testing.T) {
	ctx := context.Background()
	fc, src := newTestFileCache(t)
	path := filepath.Join(src, "main.go")
	writeSource(t, path, "package main\n")

	assert.Equal(t, 0, fc.Stats().Entries)

	require.NoError(t, fc.Set(ctx, path, "lint", lintResult{Score: 1}))
	require.NoError(t, fc.Set(ctx, path, "coverage", lintResult{Score: 1}))
	writeSource(t, filepath.Join(fc.Dir(), "notes.txt"), "not a result")

	st := fc.Stats()
	assert.Equal(t, 2, st.Entries)
	assert.Positive(t, st.TotalBytes)
	assert.Equal(t, fc.Dir(), st.Directory)
}
