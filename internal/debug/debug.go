// Package debug provides stderr debug logging and quiet-mode suppression
// for user-facing output.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("BD_TRELLO_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet enables quiet mode (suppress non-essential output)
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return quietMode
}

func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Warnf always prints to stderr, even in quiet mode.
func Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

// PrintNormal prints output unless quiet mode is enabled.
// Use this for normal informational output that should be suppressed in quiet mode.
func PrintNormal(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}
