// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package config provides configuration for the cache tiers and the
// cicd-cache command.
//
// Configuration Loading Order (later overrides earlier):
// 1. Defaults (hardcoded)
// 2. Global Config: $HOME/.cicd-ai-toolkit/cache.yaml
// 3. Project Config: ./.cicd-cache.yaml
// 4. Environment Variables: CICD_CACHE_*
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete cache configuration.
type Config struct {
	Cache  CacheConfig  `yaml:"cache"`
	Global GlobalConfig `yaml:"global"`
}

// CacheConfig contains the settings of the three cache tiers.
//
// default_ttl takes a Go duration ("90s", "1h30m") or a bare number, which
// is read as seconds: "default_ttl: 3600" is one hour.
type CacheConfig struct {
	Dir              string        `yaml:"dir"`                // Persistent entry store directory
	FileDir          string        `yaml:"file_dir"`           // Content-addressed result directory
	DefaultTTL       time.Duration `yaml:"default_ttl"`        // TTL used when a write passes none
	MemoryMaxEntries int           `yaml:"memory_max_entries"` // In-process LRU capacity
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level"` // debug, info, warn, error
}

// UnmarshalYAML decodes a cache section, reading default_ttl with parseTTL.
func (c *CacheConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Dir              string    `yaml:"dir"`
		FileDir          string    `yaml:"file_dir"`
		DefaultTTL       yaml.Node `yaml:"default_ttl"`
		MemoryMaxEntries int       `yaml:"memory_max_entries"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	*c = CacheConfig{
		Dir:              raw.Dir,
		FileDir:          raw.FileDir,
		MemoryMaxEntries: raw.MemoryMaxEntries,
	}
	ttl := raw.DefaultTTL
	if ttl.IsZero() || ttl.ShortTag() == "!!null" {
		return nil
	}
	if ttl.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: default_ttl must be a duration or a number of seconds", ttl.Line)
	}
	d, err := parseTTL(ttl.Value)
	if err != nil {
		return fmt.Errorf("line %d: default_ttl: %w", ttl.Line, err)
	}
	c.DefaultTTL = d
	return nil
}

// parseTTL reads a Go duration, or a bare number as seconds.
func parseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.ParseDuration(s)
	}
	if math.IsNaN(secs) || math.Abs(secs) > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("ttl %q out of range", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
