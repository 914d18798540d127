// Package logging provides the engine's two severity levels, matching
// the original CLI's plain "[FAIL] <err>" / "[WARNING] <msg>" console
// output (stderr, no timestamps or structured fields — a realtime audio
// CLI wants messages a human glances at, not a log aggregator).
package logging

import (
	"fmt"
	"log"
	"os"
)

var stderr = log.New(os.Stderr, "", 0)

// Warn prints a non-fatal warning to stderr.
func Warn(format string, args ...interface{}) {
	stderr.Print("[WARNING] " + fmt.Sprintf(format, args...))
}

// Fail prints a fatal error to stderr and exits with status 1, mirroring
// the original CLI's top-level `eprintln!("[FAIL] {err:?}"); exit(1)`.
func Fail(err error) {
	stderr.Print("[FAIL] " + err.Error())
	os.Exit(1)
}
