// Package detector inspects the process environment to decide whether
// interactive side effects, such as opening a browser, are appropriate.
package detector

import (
	"os"

	"golang.org/x/term"
)

// IsCI reports whether the CI environment variable is set to a truthy value.
func IsCI() bool {
	ci := os.Getenv("CI")
	return ci == "true" || ci == "1"
}

// IsInteractive reports whether stdout is a terminal outside of CI.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && !IsCI()
}

// ResolveOpen decides whether the browser should be opened. The config value
// is the default, noOpen overrides it, and a non-interactive session never opens.
func ResolveOpen(configured, noOpen, interactive bool) bool {
	if noOpen || !interactive {
		return false
	}
	return configured
}
