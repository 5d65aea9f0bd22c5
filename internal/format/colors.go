package format

import (
	"os"

	"golang.org/x/term"
)

// ColorsEnabled reports whether SGR sequences should be emitted: force
// overrides everything (the engine's --force flag applies here too, since a
// script capturing output still wants escape codes if it asked for them via
// the format string), otherwise NO_COLOR and TERM=dumb disable color, and
// finally standard output must be a terminal.
func ColorsEnabled(force bool) bool {
	if force {
		return true
	}

	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}

	if os.Getenv("TERM") == "dumb" {
		return false
	}

	return term.IsTerminal(int(os.Stdout.Fd()))
}
