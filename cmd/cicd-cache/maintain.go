// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// cleanupCmd represents the cleanup command
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired entries",
	Long: `Remove every entry whose TTL has elapsed, together with its payload.
Expired entries are also dropped lazily on read; cleanup reclaims the
space of entries nobody reads again.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := current.diskCache()
		if err != nil {
			return err
		}
		removed, err := disk.CleanupExpired(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
		return nil
	},
}

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		disk, err := current.diskCache()
		if err != nil {
			return err
		}
		if err := disk.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "cleared %s\n", disk.Dir())

		if !clearOpts.files {
			return nil
		}
		files, err := current.fileCache()
		if err != nil {
			return err
		}
		// No file is tracked, so every result is orphaned.
		removed, err := files.Sweep(ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "cleared %s (%d results)\n", files.Dir(), removed)
		return nil
	},
}

// clearFlags holds the flags for the clear command
type clearFlags struct {
	files bool
}

var clearOpts clearFlags

func init() {
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearOpts.files, "files", false, "also remove per-file results")
}
