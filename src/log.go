package sau

import (
	"os"

	"github.com/charmbracelet/log"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Package-wide structured logging. The Generator's
 *		hot render loop never logs; this logger is for the slower
 *		setup/teardown edges (PreAlloc building a RuntimeProgram,
 *		opening or closing a Sink) where a
 *		malformed score or a bad file path is worth a line of
 *		context before the error bubbles up to the caller.
 *
 *------------------------------------------------------------------*/

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "sau",
})

// SetLogger lets a host application (a CLI, a test harness) swap in
// its own configured *log.Logger instead of the package default.
func SetLogger(l *log.Logger) {
	logger = l
}
