// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package main is the entry point for the cicd-cache CLI.
package main

import (
	"os"

	cerrors "github.com/cicd-ai-toolkit/cicd-cache/pkg/errors"
)

const (
	exitFailure = 1
	// exitEnvironment means the cache or its inputs could not be read or
	// written; the invocation itself was valid.
	exitEnvironment = 2
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if cerrors.IsEnvironmental(err) {
		return exitEnvironment
	}
	return exitFailure
}
