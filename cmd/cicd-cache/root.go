// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"context"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/cicd-cache/pkg/cache"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/config"
	cctx "github.com/cicd-ai-toolkit/cicd-cache/pkg/context"
	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/observability"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cicd-cache",
	Short: "Inspect and maintain CICD AI Toolkit caches",
	Long: `cicd-cache maintains the caches that analysis runs share between
pipeline steps: the TTL entry store and the per-file result cache.

Configuration is read from $HOME/.cicd-ai-toolkit/cache.yaml, then
./.cicd-cache.yaml, then CICD_CACHE_* environment variables. Flags win.`,
	Version:            version.FullString(),
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// rootFlags holds the persistent flags shared by all commands
type rootFlags struct {
	configFile  string
	dir         string
	fileDir     string
	logLevel    string
	timeout     time.Duration
	metricsFile string
}

var rootOpts rootFlags

// app is the state built by setup for the running command.
type app struct {
	cfg     *config.Config
	logger  observability.Logger
	metrics *observability.Metrics
	cancel  context.CancelFunc
}

var current *app

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rootOpts.configFile, "config", "c", "", "config file (default: global and project files)")
	flags.StringVar(&rootOpts.dir, "dir", "", "entry store directory")
	flags.StringVar(&rootOpts.fileDir, "file-dir", "", "per-file result directory")
	flags.StringVar(&rootOpts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.DurationVar(&rootOpts.timeout, "timeout", 0, "abort after this long (0 means no limit)")
	flags.StringVar(&rootOpts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on success")
}

func setup(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoader()
	if rootOpts.configFile != "" {
		loader = loader.WithConfigFile(rootOpts.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return cerrors.ConfigError("failed to load configuration", err)
	}

	if rootOpts.dir != "" {
		cfg.Cache.Dir = rootOpts.dir
	}
	if rootOpts.fileDir != "" {
		cfg.Cache.FileDir = rootOpts.fileDir
	}
	if rootOpts.logLevel != "" {
		cfg.Global.LogLevel = rootOpts.logLevel
	}
	if err := config.NewValidator().Validate(cfg); err != nil {
		return cerrors.ConfigError("invalid configuration", err)
	}

	ctx, cancel := cctx.WithSignalTimeout(cmd.Context(), rootOpts.timeout, os.Interrupt, syscall.SIGTERM)
	cmd.SetContext(ctx)

	current = &app{
		cfg:     cfg,
		logger:  observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Global.LogLevel),
		metrics: observability.NewMetrics(),
		cancel:  cancel,
	}
	current.logger.Debug("configuration loaded",
		observability.String("files", strings.Join(loader.FindConfigPaths(), ",")),
		observability.Int("env_overrides", len(config.GetEnvConfig())),
		observability.String("dir", cfg.Cache.Dir),
		observability.String("file_dir", cfg.Cache.FileDir),
		observability.Duration("default_ttl", cfg.Cache.DefaultTTL))
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if current == nil || rootOpts.metricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(rootOpts.metricsFile, current.metrics.Registry()); err != nil {
		return cerrors.StorageError("failed to write metrics", err).
			WithContext("path", rootOpts.metricsFile)
	}
	return nil
}

func closeApp() {
	if current != nil && current.cancel != nil {
		current.cancel()
	}
	current = nil
}

func (a *app) options() []cache.Option {
	return []cache.Option{
		cache.WithTTL(a.cfg.Cache.DefaultTTL),
		cache.WithLogger(a.logger),
		cache.WithMetrics(a.metrics),
	}
}

func (a *app) diskCache() (*cache.DiskCache, error) {
	return cache.NewDiskCache(a.cfg.Cache.Dir, a.options()...)
}

func (a *app) fileCache() (*cache.FileCache, error) {
	return cache.NewFileCache(a.cfg.Cache.FileDir, a.options()...)
}
