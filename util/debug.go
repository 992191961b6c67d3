// util/debug.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"os"
	"strings"
)

// DebuggerIsRunning reports whether the process appears to be running
// under a debugger, so that diagnostics that are only useful in
// production (e.g., LoggingMutex's report of a lock not acquired within
// ten seconds) can be
// suppressed while stepping through code by hand.
func DebuggerIsRunning() bool {
	dlv, ok := os.LookupEnv("_")
	return ok && strings.HasSuffix(dlv, "/dlv")
}
