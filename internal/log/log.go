// SPDX-License-Identifier: Unlicense OR MIT

// Package log configures the structured loggers shared by the run loop,
// the platforms and the storage.
package log

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

var std atomic.Pointer[zerolog.Logger]

func init() {
	l := New(os.Stderr, "info")
	std.Store(&l)
}

// New returns a JSON logger writing to w at the named level. An empty or
// unknown level selects info.
func New(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// Console is like New but writes human readable lines.
func Console(w io.Writer, level string) zerolog.Logger {
	return New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}, level)
}

// ParseLevel maps a level name to a zerolog level. "off" and
// "disabled" turn logging off.
func ParseLevel(level string) zerolog.Level {
	switch level = strings.ToLower(strings.TrimSpace(level)); level {
	case "":
		return zerolog.InfoLevel
	case "off":
		return zerolog.Disabled
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Default returns the process wide logger.
func Default() zerolog.Logger {
	return *std.Load()
}

// SetDefault replaces the process wide logger.
func SetDefault(l zerolog.Logger) {
	std.Store(&l)
}

// Component returns l tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
