// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package version holds build information for cicd-cache, set via
// -ldflags "-X github.com/cicd-ai-toolkit/cicd-cache/pkg/version.Version=...".
package version

import "runtime"

// Binary is the command name reported by FullString.
const Binary = "cicd-cache"

var (
	// Version is the release version.
	Version = "dev"
	// BuildDate is the build timestamp.
	BuildDate = "unknown"
	// GitCommit is the source revision.
	GitCommit = "unknown"
)

// String returns the version.
func String() string {
	return Version
}

// FullString returns the binary name and version.
func FullString() string {
	if Version == "dev" {
		return Binary + " development version"
	}
	return Binary + " " + Version
}

// Info returns all build information. The Go version is read from the
// running binary.
func Info() map[string]string {
	return map[string]string{
		"version":   Version,
		"buildDate": BuildDate,
		"gitCommit": GitCommit,
		"goVersion": runtime.Version(),
	}
}
