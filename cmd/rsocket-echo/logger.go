package main

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// newLogger builds the process-wide logger: JSON to stderr by default, or a
// colorized console writer under --pretty when stdout is actually a
// terminal (mirrors zerolog's own documented ConsoleWriter idiom; falls
// back to plain text when piped, the same isatty-gated branch
// mattn/go-colorable exists for).
func newLogger(pretty bool) zerolog.Logger {
	if !pretty {
		return zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	out := os.Stdout
	var w zerolog.ConsoleWriter
	if isatty.IsTerminal(out.Fd()) {
		w = zerolog.ConsoleWriter{Out: colorable.NewColorable(out)}
	} else {
		w = zerolog.ConsoleWriter{Out: out, NoColor: true}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}
