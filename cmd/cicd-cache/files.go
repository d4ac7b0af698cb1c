// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
	"github.com/cicd-ai-toolkit/cicd-cache/pkg/perf"
)

// hashCmd represents the hash command
var hashCmd = &cobra.Command{
	Use:   "hash <file>...",
	Short: "Print the content hash results are stored under",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := current.fileCache()
		if err != nil {
			return err
		}

		hashes, err := perf.Map(cmd.Context(), args, func(_ context.Context, path string) (string, error) {
			return files.ContentHash(path), nil
		}, 0)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		unreadable := 0
		for i, h := range hashes {
			if h == "" {
				h = "-"
				unreadable++
			}
			fmt.Fprintf(out, "%s  %s\n", h, args[i])
		}
		if unreadable > 0 {
			return cerrors.StorageError(fmt.Sprintf("%d of %d files unreadable", unreadable, len(args)), nil)
		}
		return nil
	},
}

// invalidateCmd represents the invalidate command
var invalidateCmd = &cobra.Command{
	Use:   "invalidate <file>...",
	Short: "Remove the results stored for the current content of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := current.fileCache()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		total := 0
		for _, path := range args {
			removed, err := files.Invalidate(cmd.Context(), path)
			if err != nil {
				return err
			}
			total += removed
			fmt.Fprintf(out, "%s: removed %d\n", path, removed)
		}
		if len(args) > 1 {
			fmt.Fprintf(out, "removed %d results\n", total)
		}
		return nil
	},
}

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep [tracked-file]...",
	Short: "Remove results that match no tracked file",
	Long: `Remove every per-file result whose content hash matches none of the
tracked files. Results for edited or deleted files are otherwise never
reclaimed. Pass the tracked files as arguments or one per line with --from:

  git ls-files | cicd-cache sweep --from -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tracked := append([]string(nil), args...)
		if sweepOpts.from != "" {
			listed, err := readPathList(cmd.InOrStdin(), sweepOpts.from)
			if err != nil {
				return err
			}
			tracked = append(tracked, listed...)
		}
		if len(tracked) == 0 && !sweepOpts.all {
			return cerrors.ValidationError("no tracked files given; pass --all to remove every result", nil)
		}

		files, err := current.fileCache()
		if err != nil {
			return err
		}
		removed, err := files.Sweep(cmd.Context(), tracked)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d orphaned results\n", removed)
		return nil
	},
}

// sweepFlags holds the flags for the sweep command
type sweepFlags struct {
	from string
	all  bool
}

var sweepOpts sweepFlags

func init() {
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepOpts.from, "from", "", `read tracked paths from this file ("-" for stdin)`)
	sweepCmd.Flags().BoolVar(&sweepOpts.all, "all", false, "allow sweeping with no tracked files")
}

// readPathList reads one path per line from name, or from stdin when name
// is "-". Blank lines are skipped.
func readPathList(stdin io.Reader, name string) ([]string, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, cerrors.StorageError("failed to open path list", err).WithContext("path", name)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, cerrors.StorageError("failed to read path list", err).WithContext("path", name)
	}
	return paths, nil
}
