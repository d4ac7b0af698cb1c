// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cicd-ai-toolkit/cicd-cache/pkg/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// isolatedLoader reads no files outside the test's temp dirs.
func isolatedLoader(t *testing.T) (*config.Loader, string, string) {
	t.Helper()
	home, project := t.TempDir(), t.TempDir()
	return config.NewLoader().WithHomeDir(home).WithProjectRoot(project), home, project
}

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL)
	assert.Equal(t, 1000, cfg.Cache.MemoryMaxEntries)
	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Equal(t, "entries", filepath.Base(cfg.Cache.Dir))
	assert.Equal(t, "files", filepath.Base(cfg.Cache.FileDir))
	assert.NoError(t, config.NewValidator().Validate(cfg))
}

func TestLoadConfigFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.yaml")
	writeConfig(t, path, `
cache:
  dir: /var/cache/cicd/entries
  default_ttl: 10m
global:
  log_level: debug
`)

	cfg, err := config.NewLoader().WithConfigFile(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "/var/cache/cicd/entries", cfg.Cache.Dir)
	assert.Equal(t, 10*time.Minute, cfg.Cache.DefaultTTL)
	assert.Equal(t, "debug", cfg.Global.LogLevel)
	assert.Equal(t, 1000, cfg.Cache.MemoryMaxEntries, "unset fields keep their defaults")
}

func TestLoadConfigFileInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"not a duration": "cache:\n  default_ttl: not_a_duration\n",
		"not a scalar":   "cache:\n  default_ttl: [1, 2]\n",
		"infinite":       "cache:\n  default_ttl: inf\n",
		"too large":      "cache:\n  default_ttl: 1e30\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.yaml")
			writeConfig(t, path, content)

			_, err := config.NewLoader().WithConfigFile(path).Load()
			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, path, cfgErr.Path)
		})
	}
}

func TestLoadDefaultTTLFormats(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"3600", time.Hour},
		{"90", 90 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{`"45"`, 45 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"~", config.DefaultTTL},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.yaml")
			writeConfig(t, path, "cache:\n  default_ttl: "+tt.value+"\n")

			cfg, err := config.NewLoader().WithConfigFile(path).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Cache.DefaultTTL)
		})
	}
}

func TestLoadPrecedence(t *testing.T) {
	loader, home, project := isolatedLoader(t)

	writeConfig(t, filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), `
cache:
  dir: /global/entries
  file_dir: /global/files
  memory_max_entries: 50
global:
  log_level: warn
`)
	writeConfig(t, filepath.Join(project, config.ProjectConfigFile), `
cache:
  dir: /project/entries
`)
	t.Setenv(config.EnvLogLevel, "error")

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "/project/entries", cfg.Cache.Dir, "project overrides global")
	assert.Equal(t, "/global/files", cfg.Cache.FileDir, "global survives where project is silent")
	assert.Equal(t, 50, cfg.Cache.MemoryMaxEntries)
	assert.Equal(t, "error", cfg.Global.LogLevel, "env overrides files")
	assert.Equal(t, time.Hour, cfg.Cache.DefaultTTL)

	assert.Len(t, loader.FindConfigPaths(), 2)
}

func TestLoadSkipGlobal(t *testing.T) {
	loader, home, _ := isolatedLoader(t)
	writeConfig(t, filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), "global:\n  log_level: warn\n")

	cfg, err := loader.SkipGlobal().Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Global.LogLevel)
	assert.Empty(t, loader.FindConfigPaths())
}

func TestLoadMalformedProjectConfig(t *testing.T) {
	loader, _, project := isolatedLoader(t)
	writeConfig(t, filepath.Join(project, config.ProjectConfigFile), "cache: [unterminated\n")

	_, err := loader.Load()
	assert.Error(t, err)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	loader, _, project := isolatedLoader(t)
	writeConfig(t, filepath.Join(project, config.ProjectConfigFile), "cache:\n  dir: /project\n")

	explicit := filepath.Join(t.TempDir(), "ci.yaml")
	writeConfig(t, explicit, "cache:\n  file_dir: /ci/files\n")

	cfg, err := loader.WithConfigFile(explicit).Load()
	require.NoError(t, err)
	assert.Equal(t, "/ci/files", cfg.Cache.FileDir)
	assert.NotEqual(t, "/project", cfg.Cache.Dir, "project file is not read")

	_, err = config.NewLoader().WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")).Load()
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadWithEnvOverrides(t *testing.T) {
	loader, _, _ := isolatedLoader(t)
	t.Setenv(config.EnvDir, "/env/entries")
	t.Setenv(config.EnvFileDir, "/env/files")
	t.Setenv(config.EnvDefaultTTL, "90")
	t.Setenv(config.EnvMemoryMaxEntries, "64")

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "/env/entries", cfg.Cache.Dir)
	assert.Equal(t, "/env/files", cfg.Cache.FileDir)
	assert.Equal(t, 90*time.Second, cfg.Cache.DefaultTTL)
	assert.Equal(t, 64, cfg.Cache.MemoryMaxEntries)

	assert.Equal(t, "64", config.GetEnvConfig()[config.EnvMemoryMaxEntries])
}

func TestLoadWithInvalidEnv(t *testing.T) {
	for env, field := range map[string]string{
		config.EnvDefaultTTL:       "cache.default_ttl",
		config.EnvMemoryMaxEntries: "cache.memory_max_entries",
	} {
		t.Run(env, func(t *testing.T) {
			loader, _, _ := isolatedLoader(t)
			t.Setenv(env, "bogus")

			_, err := loader.Load()
			var cfgErr *config.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}

func TestValidator(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		field  string
	}{
		{"valid", func(*config.Config) {}, ""},
		{"zero ttl uses default", func(c *config.Config) { c.Cache.DefaultTTL = 0 }, ""},
		{"negative ttl", func(c *config.Config) { c.Cache.DefaultTTL = -time.Second }, "cache.default_ttl"},
		{"zero memory size", func(c *config.Config) { c.Cache.MemoryMaxEntries = 0 }, "cache.memory_max_entries"},
		{"negative memory size", func(c *config.Config) { c.Cache.MemoryMaxEntries = -5 }, "cache.memory_max_entries"},
		{"empty dir", func(c *config.Config) { c.Cache.Dir = "" }, "cache.dir"},
		{"empty file dir", func(c *config.Config) { c.Cache.FileDir = "" }, "cache.file_dir"},
		{"upper-case level", func(c *config.Config) { c.Global.LogLevel = "DEBUG" }, ""},
		{"unknown level", func(c *config.Config) { c.Global.LogLevel = "verbose" }, "global.log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(cfg)

			err := config.NewValidator().Validate(cfg)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *config.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}
