// Package logctx is a small per-party prefixed-stderr logger, matching
// the narration texture of Network/Party.py and Protocols/*.py's
// print(f"[{node}] ...") milestones and the teacher CLI's
// fmt.Fprintf(os.Stderr, ...) style. No external logging library is
// pulled in for this layer — neither the teacher nor the rest of the
// retrieval pack does, for a single-process CLI's own narration.
package logctx

import (
	"fmt"
	"io"
	"os"

	"github.com/luxfi/fliop/pkg/party"
)

// Logger prefixes every line with the owning party's id. Printf only
// emits output when Verbose is true, matching the CLI's --verbose gate;
// Always emits regardless.
type Logger struct {
	Out     io.Writer
	Self    party.ID
	Verbose bool
}

// New creates a Logger writing to os.Stderr.
func New(self party.ID, verbose bool) *Logger {
	return &Logger{Out: os.Stderr, Self: self, Verbose: verbose}
}

// Printf writes a prefixed, formatted line if Verbose is set.
func (l *Logger) Printf(format string, args ...interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	fmt.Fprintf(l.Out, "[party %d] "+format+"\n", append([]interface{}{l.Self}, args...)...)
}

// Always writes a prefixed line regardless of Verbose, for startup
// banners and terminal error reports that should never be silent.
func (l *Logger) Always(format string, args ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.Out, "[party %d] "+format+"\n", append([]interface{}{l.Self}, args...)...)
}
