// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package config

import (
	"fmt"
	"slices"
	"strings"
)

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validator validates configuration.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates a configuration.
func (v *Validator) Validate(cfg *Config) error {
	if err := v.ValidateCache(&cfg.Cache); err != nil {
		return err
	}
	return v.ValidateGlobal(&cfg.Global)
}

// ValidateCache validates the cache tier settings.
func (v *Validator) ValidateCache(cfg *CacheConfig) error {
	if cfg.Dir == "" {
		return &ValidationError{Field: "cache.dir", Message: "must be set"}
	}
	if cfg.FileDir == "" {
		return &ValidationError{Field: "cache.file_dir", Message: "must be set"}
	}
	if cfg.DefaultTTL < 0 {
		return &ValidationError{
			Field:   "cache.default_ttl",
			Value:   cfg.DefaultTTL,
			Message: "must not be negative",
		}
	}
	if cfg.MemoryMaxEntries <= 0 {
		return &ValidationError{
			Field:   "cache.memory_max_entries",
			Value:   cfg.MemoryMaxEntries,
			Message: "must be positive",
		}
	}
	return nil
}

// ValidateGlobal validates global configuration.
func (v *Validator) ValidateGlobal(cfg *GlobalConfig) error {
	if cfg.LogLevel != "" && !slices.Contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
		return &ValidationError{
			Field:   "global.log_level",
			Value:   cfg.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLogLevels, ", ")),
		}
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error for %s: %s (got: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
