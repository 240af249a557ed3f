// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"os"
	"path/filepath"

	"loomui.org/app/internal/access"
	"loomui.org/io/system"
)

// ID is the default application identifier. storage.FromAppID uses it
// when given an empty identifier, and it is the default of the app-id
// setting.
//
// Set it with the -X linker flag:
//
//	go build -ldflags="-X 'loomui.org/app.ID=org.example.Counter'" .
//
// The default value of ID is filepath.Base(os.Args[0]).
var ID = ""

type (
	// WindowID identifies a window.
	WindowID = system.WindowID
	// ViewportID identifies a viewport.
	ViewportID = system.ViewportID
	// DeviceID identifies an input device.
	DeviceID = system.DeviceID
)

// DataDir returns a path to use for application-specific
// configuration data.
// On desktop systems, DataDir use os.UserConfigDir.
func DataDir() (string, error) {
	return dataDir()
}

// WithCurrentSource calls f with the Source of the platform callback
// running on the calling goroutine. It reports false outside of
// callbacks.
func WithCurrentSource[R any](f func(Source) R) (R, bool) {
	return access.Current[Source, R](f)
}

func init() {
	if ID == "" {
		ID = filepath.Base(os.Args[0])
	}
}
