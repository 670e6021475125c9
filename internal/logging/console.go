package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// NewConsole returns a timestamped console logger. Unknown levels fall back to info.
func NewConsole(w io.Writer, prefix, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           lvl,
	})
}
