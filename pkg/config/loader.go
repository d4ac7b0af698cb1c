// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is the prefix for all environment variables.
	EnvPrefix = "CICD_CACHE"
	// ProjectConfigFile is the project-level config file name.
	ProjectConfigFile = ".cicd-cache.yaml"
	// GlobalConfigDir is the global config directory name.
	GlobalConfigDir = ".cicd-ai-toolkit"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "cache.yaml"
)

// Environment variables read by Load.
const (
	EnvDir              = EnvPrefix + "_DIR"
	EnvFileDir          = EnvPrefix + "_FILE_DIR"
	EnvDefaultTTL       = EnvPrefix + "_DEFAULT_TTL"
	EnvMemoryMaxEntries = EnvPrefix + "_MEMORY_MAX_ENTRIES"
	EnvLogLevel         = EnvPrefix + "_LOG_LEVEL"
)

// Loader loads configuration from files and environment.
type Loader struct {
	projectRoot string
	homeDir     string
	configFile  string
	skipGlobal  bool
}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// WithProjectRoot sets the project root directory.
func (l *Loader) WithProjectRoot(root string) *Loader {
	l.projectRoot = root
	return l
}

// WithHomeDir overrides the directory the global config is looked up in.
func (l *Loader) WithHomeDir(dir string) *Loader {
	l.homeDir = dir
	return l
}

// WithConfigFile loads path instead of the global and project files. The
// file must exist.
func (l *Loader) WithConfigFile(path string) *Loader {
	l.configFile = path
	return l
}

// SkipGlobal skips loading global config.
func (l *Loader) SkipGlobal() *Loader {
	l.skipGlobal = true
	return l
}

// Load loads configuration with full precedence order:
// 1. Defaults
// 2. Global Config ($HOME/.cicd-ai-toolkit/cache.yaml)
// 3. Project Config (./.cicd-cache.yaml)
// 4. Environment Variables (CICD_CACHE_*)
//
// Missing files are skipped; unreadable or malformed ones are errors.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configFile != "" {
		fileCfg, err := loadFile(l.configFile)
		if err != nil {
			return nil, err
		}
		mergeConfig(cfg, fileCfg)
	} else {
		if !l.skipGlobal {
			if err := l.mergeOptional(cfg, l.globalConfigPath()); err != nil {
				return nil, err
			}
		}
		if err := l.mergeOptional(cfg, GetProjectConfigPath(l.projectRoot)); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) mergeOptional(cfg *Config, path string) error {
	fileCfg, err := loadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	mergeConfig(cfg, fileCfg)
	return nil
}

func (l *Loader) globalConfigPath() string {
	if l.homeDir != "" {
		return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
	}
	return GetDefaultConfigPath()
}

// loadFile parses path without defaults, so unset fields stay zero and do
// not override earlier layers.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvDir); v != "" {
		cfg.Cache.Dir = v
	}
	if v := os.Getenv(EnvFileDir); v != "" {
		cfg.Cache.FileDir = v
	}
	if v := os.Getenv(EnvDefaultTTL); v != "" {
		d, err := parseTTL(v)
		if err != nil {
			return &ConfigError{Field: "cache.default_ttl", Err: err}
		}
		cfg.Cache.DefaultTTL = d
	}
	if v := os.Getenv(EnvMemoryMaxEntries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "cache.memory_max_entries", Err: err}
		}
		cfg.Cache.MemoryMaxEntries = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Global.LogLevel = v
	}
	return nil
}

// mergeConfig merges src into dst (src overrides dst). Negative values are
// carried over so the validator can reject them.
func mergeConfig(dst, src *Config) {
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}
	if src.Cache.FileDir != "" {
		dst.Cache.FileDir = src.Cache.FileDir
	}
	if src.Cache.DefaultTTL != 0 {
		dst.Cache.DefaultTTL = src.Cache.DefaultTTL
	}
	if src.Cache.MemoryMaxEntries != 0 {
		dst.Cache.MemoryMaxEntries = src.Cache.MemoryMaxEntries
	}
	if src.Global.LogLevel != "" {
		dst.Global.LogLevel = src.Global.LogLevel
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Path  string
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return "config error in " + e.Path + ": " + e.Err.Error()
	}
	if e.Field != "" {
		return "config error for " + e.Field + ": " + e.Err.Error()
	}
	return "config error: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FindConfigPaths returns the config files Load would read, in precedence
// order.
func (l *Loader) FindConfigPaths() []string {
	if l.configFile != "" {
		return []string{l.configFile}
	}

	var paths []string
	candidates := []string{GetProjectConfigPath(l.projectRoot)}
	if !l.skipGlobal {
		candidates = append([]string{l.globalConfigPath()}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths
}

// GetEnvConfig returns all environment variables that start with CICD_CACHE_.
func GetEnvConfig() map[string]string {
	result := make(map[string]string)

	for _, env := range os.Environ() {
		if strings.HasPrefix(env, EnvPrefix+"_") {
			kv := strings.SplitN(env, "=", 2)
			if len(kv) == 2 {
				result[kv[0]] = kv[1]
			}
		}
	}

	return result
}
