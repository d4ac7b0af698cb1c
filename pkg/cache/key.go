// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// keySeparator joins key components. It is not expected inside any
// component, so ("ab", "c") and ("a", "bc") never collide.
const keySeparator = "\x1f"

// KeyFunc derives a memoization key from a function identity and its call
// arguments.
type KeyFunc func(fn string, args []any, kwargs map[string]any) string

// FromSemantic returns the hex SHA-256 of the components. Used wherever the
// key gates correctness, e.g. file content identity.
func FromSemantic(components ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(components, keySeparator)))
	return hex.EncodeToString(sum[:])
}

// FromCall returns the hex MD5 of fn and its arguments. Keyword arguments are
// sorted by name first, so call order never changes the key.
//
// Values are rendered as JSON, falling back to %#v when JSON fails. Values
// whose rendering differs between runs (pointers, channels, funcs) produce
// spurious misses.
// MD5 is used for bookkeeping keys only, not for security.
func FromCall(fn string, args []any, kwargs map[string]any) string {
	parts := make([]string, 0, 1+len(args)+len(kwargs))
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, stableRepr(a))
	}

	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		parts = append(parts, name+"="+stableRepr(kwargs[name]))
	}

	sum := md5.Sum([]byte(strings.Join(parts, keySeparator)))
	return hex.EncodeToString(sum[:])
}

func stableRepr(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T:%#v", v, v)
	}
	return string(b)
}

// KeyGenerator generates cache keys.
type KeyGenerator struct {
	prefix string
}

// NewKeyGenerator creates a key generator. An empty prefix yields bare
// digests, which DiskCache stores under their own names.
func NewKeyGenerator(prefix string) *KeyGenerator {
	return &KeyGenerator{
		prefix: prefix,
	}
}

// Generate generates a cache key from inputs.
func (kg *KeyGenerator) Generate(inputs ...string) string {
	return kg.withPrefix(FromSemantic(inputs...))
}

// GenerateForCall generates a key for a memoized call.
func (kg *KeyGenerator) GenerateForCall(fn string, args []any, kwargs map[string]any) string {
	return kg.withPrefix(FromCall(fn, args, kwargs))
}

// GenerateForAnalysis generates a key for an analysis of a diff or file
// content, independent of where the content came from.
func (kg *KeyGenerator) GenerateForAnalysis(kind, content string) string {
	return kg.Generate(kind, FromSemantic(content))
}

func (kg *KeyGenerator) withPrefix(digest string) string {
	if kg.prefix == "" {
		return digest
	}
	return kg.prefix + ":" + digest
}

// ForFile returns the content-addressed name of an analysis result:
// <kind>_<contentHash>.
func ForFile(kind, contentHash string) string {
	return kind + "_" + contentHash
}

// isHexDigest reports whether s is a lowercase hex string of a digest
// length DiskCache can use directly as a file name.
func isHexDigest(s string) bool {
	if len(s) != md5.Size*2 && len(s) != sha256.Size*2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// fileKey maps a DiskCache key to the base name of its payload file.
// MD5 is used for filename generation only, not for security.
func fileKey(key string) string {
	if isHexDigest(key) {
		return key
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
