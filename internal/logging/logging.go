// Package logging wraps charmbracelet/log the way the teacher's CLIs set up
// their diagnostic output: Info level by default, Debug level with
// timestamps under --debug. The diagnostic context attached to errors lives
// in internal/rendererrors.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// New builds a logger at Info level, or Debug level when debug is set,
// writing to stderr so stdout stays free for tool output (dump_axml etc).
func New(debug bool) *log.Logger {
	lvl := log.InfoLevel
	if debug {
		lvl = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: debug,
		Level:           lvl,
	})
	return logger
}
