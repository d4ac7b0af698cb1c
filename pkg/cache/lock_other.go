// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

//go:build !unix

package cache

// lockFile is a no-op where flock is unavailable. Index writes still go
// through a temp file and rename, so readers never see a torn index.
func lockFile(string) (func(), error) {
	return func() {}, nil
}
