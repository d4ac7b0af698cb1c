// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultTTL mirrors cache.DefaultTTL.
	DefaultTTL = time.Hour
	// DefaultMemoryMaxEntries mirrors cache.DefaultMemoryMaxEntries.
	DefaultMemoryMaxEntries = 1000
)

// DefaultConfig returns the default configuration.
// These values are used when no config file is present.
func DefaultConfig() *Config {
	return &Config{
		Cache:  DefaultCacheConfig(GetDefaultCachePath()),
		Global: DefaultGlobalConfig(),
	}
}

// DefaultCacheConfig returns the cache settings rooted at base.
func DefaultCacheConfig(base string) CacheConfig {
	return CacheConfig{
		Dir:              filepath.Join(base, "entries"),
		FileDir:          filepath.Join(base, "files"),
		DefaultTTL:       DefaultTTL,
		MemoryMaxEntries: DefaultMemoryMaxEntries,
	}
}

// DefaultGlobalConfig returns default global configuration.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		LogLevel: "info",
	}
}

// GetDefaultCachePath returns the default cache root directory. It falls
// back to the system temp dir when there is no home directory, as on some
// CI runners.
func GetDefaultCachePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil || homeDir == "" {
		return filepath.Join(os.TempDir(), "cicd-ai-toolkit", "cache")
	}
	return filepath.Join(homeDir, GlobalConfigDir, "cache")
}

// GetDefaultConfigPath returns the default global config file path.
func GetDefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, GlobalConfigDir, GlobalConfigFile)
}

// GetProjectConfigPath returns the project config file path.
func GetProjectConfigPath(projectRoot string) string {
	if projectRoot == "" {
		projectRoot = "."
	}
	return filepath.Join(projectRoot, ProjectConfigFile)
}
