// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/cicd-cache/pkg/cache"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show entry counts and sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		disk, err := current.diskCache()
		if err != nil {
			return err
		}
		files, err := current.fileCache()
		if err != nil {
			return err
		}

		report := statsReport{
			Entries:    disk.Stats(),
			Files:      files.Stats(),
			DefaultTTL: current.cfg.Cache.DefaultTTL.String(),
		}

		out := cmd.OutOrStdout()
		if statsOpts.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Fprintf(out, "entries: %s (%s) in %s\n",
			humanize.Comma(int64(report.Entries.Entries)),
			humanize.Bytes(uint64(report.Entries.TotalBytes)),
			report.Entries.Directory)
		fmt.Fprintf(out, "files:   %s (%s) in %s\n",
			humanize.Comma(int64(report.Files.Entries)),
			humanize.Bytes(uint64(report.Files.TotalBytes)),
			report.Files.Directory)
		fmt.Fprintf(out, "default ttl: %s\n", report.DefaultTTL)
		return nil
	},
}

type statsReport struct {
	Entries    cache.Stats `json:"entries"`
	Files      cache.Stats `json:"files"`
	DefaultTTL string      `json:"default_ttl"`
}

// statsFlags holds the flags for the stats command
type statsFlags struct {
	json bool
}

var statsOpts statsFlags

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsOpts.json, "json", false, "print JSON")
}
