// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"loomui.org/internal/log"
)

// Option configures a Driver.
type Option func(*Config)

// Config is the configuration of a Driver.
type Config struct {
	// RunAndReturn makes an Exit result stop the platform and return
	// from Run, instead of terminating the process.
	RunAndReturn bool
	// RepaintNow selects how RepaintNow results are handled.
	RepaintNow Policy
	// Logger receives the driver's log output.
	Logger zerolog.Logger
	// Now returns the current time.
	Now func() time.Time
	// ProcessExit terminates the process when RunAndReturn is false.
	ProcessExit func(code int)
}

// Policy is the handling of RepaintNow results.
type Policy uint8

const (
	// RepaintDeferred treats RepaintNow like RepaintNext.
	RepaintDeferred Policy = iota
	// RepaintImmediate paints the window before the callback
	// returns. Some platforms flicker when the repaint is deferred.
	RepaintImmediate
)

// RunAndReturn sets Config.RunAndReturn.
func RunAndReturn(enable bool) Option {
	return func(cnf *Config) {
		cnf.RunAndReturn = enable
	}
}

// RepaintNowPolicy sets Config.RepaintNow.
func RepaintNowPolicy(p Policy) Option {
	return func(cnf *Config) {
		cnf.RepaintNow = p
	}
}

// WithLogger sets Config.Logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cnf *Config) {
		cnf.Logger = l
	}
}

// WithClock sets Config.Now.
func WithClock(now func() time.Time) Option {
	return func(cnf *Config) {
		cnf.Now = now
	}
}

// WithProcessExit sets Config.ProcessExit.
func WithProcessExit(exit func(code int)) Option {
	return func(cnf *Config) {
		cnf.ProcessExit = exit
	}
}

// DefaultPolicy returns the RepaintNow policy of the running platform.
func DefaultPolicy() Policy {
	if runtime.GOOS == "windows" {
		return RepaintImmediate
	}
	return RepaintDeferred
}

// ParsePolicy parses "auto", "deferred" or "immediate". The empty
// string means "auto", the policy of the running platform.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return DefaultPolicy(), nil
	case "deferred":
		return RepaintDeferred, nil
	case "immediate":
		return RepaintImmediate, nil
	}
	return 0, fmt.Errorf("app: unknown repaint policy %q", s)
}

func (p Policy) String() string {
	switch p {
	case RepaintDeferred:
		return "deferred"
	case RepaintImmediate:
		return "immediate"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

func (cnf *Config) apply(opts []Option) {
	*cnf = Config{
		RepaintNow:  DefaultPolicy(),
		Logger:      log.Default(),
		Now:         time.Now,
		ProcessExit: os.Exit,
	}
	for _, o := range opts {
		o(cnf)
	}
}
