// Package logging builds the leveled logger used for operational output.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w (stderr when nil). format is "text",
// "json" or "logfmt".
func New(w io.Writer, level, format string) (*log.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := log.Options{
		Level:           lvl,
		Prefix:          "prodl",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	}
	switch strings.ToLower(format) {
	case "", "text":
		opts.Formatter = log.TextFormatter
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	default:
		return nil, fmt.Errorf("invalid log format %q (valid: text|json|logfmt)", format)
	}
	return log.NewWithOptions(w, opts), nil
}
