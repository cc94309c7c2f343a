// Package assertion implements the "programmer assertions" error
// category: invariant checks that are active only in debug builds and
// abort the process when violated (e.g. TagMap or UndoStacks
// consistency checks). Grounded on the teacher's build-flag + env-var
// enable pattern (internal/debug in the original lci codebase), minus
// everything specific to MCP/indexing.
package assertion

import (
	"fmt"
	"log/slog"
	"os"
)

// Enabled can be overridden at build time:
//
//	go build -ldflags "-X github.com/standardbeagle/trowser/internal/assertion.Enabled=true"
//
// or at runtime via the TROWSER_ASSERT environment variable.
var Enabled = "false"

func isEnabled() bool {
	if Enabled == "true" {
		return true
	}
	v := os.Getenv("TROWSER_ASSERT")
	return v == "1" || v == "true"
}

// Check panics (aborting the process) if cond is false and assertions
// are enabled. It is a no-op in release builds. Callers should only use
// this for true invariant violations (TagMap id not present in rule
// list, UndoStacks round-trip mismatch) — never for user-input
// validation, which belongs in internal/errors.UserInputError.
func Check(cond bool, format string, args ...any) {
	if cond || !isEnabled() {
		return
	}
	msg := fmt.Sprintf(format, args...)
	slog.Error("assertion failed", "detail", msg)
	panic("trowser: assertion failed: " + msg)
}
