// SPDX-License-Identifier: Unlicense OR MIT

// Package system contains the events a platform delivers to the
// top-level run loop, and the identifiers they refer to.
package system

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"loomui.org/io/event"
)

// WindowID identifies a window. The zero value identifies no window.
type WindowID uuid.UUID

// ViewportID identifies a viewport of the application. A viewport is
// shown in at most one window.
type ViewportID uint64

// DeviceID identifies an input device.
type DeviceID uint64

// RootViewport is the viewport of the main window.
const RootViewport ViewportID = 0

// NewWindowID returns a fresh, random WindowID.
func NewWindowID() WindowID {
	return WindowID(uuid.New())
}

func (id WindowID) String() string {
	return uuid.UUID(id).String()
}

// WakeCause is the reason a platform woke up.
type WakeCause uint8

const (
	// WakeInit is the cause of the first wake up of a run.
	WakeInit WakeCause = iota
	// WakePoll is reported when the control flow asked for polling.
	WakePoll
	// WakeWaitCancelled is reported when a new event arrived while
	// waiting.
	WakeWaitCancelled
	// WakeTimeReached is reported when a WaitUntil deadline expired.
	WakeTimeReached
)

// A WakeEvent is delivered every time the platform wakes up, before
// the events that woke it.
type WakeEvent struct {
	Cause WakeCause
}

// ResumeEvent is delivered when the application becomes active, and
// once at the start of every run.
type ResumeEvent struct{}

// SuspendEvent is delivered when the application is put in the
// background.
type SuspendEvent struct{}

// WindowEvent wraps an event targeting a single window.
type WindowEvent struct {
	ID    WindowID
	Event event.Event
}

// DeviceEvent wraps raw input from a device, independent of windows.
type DeviceEvent struct {
	ID    DeviceID
	Event event.Event
}

// RepaintRequest asks for a repaint of a viewport at When. It is
// typically sent from another goroutine. Frame is the frame number
// the sender observed; requests for older frames are stale.
type RepaintRequest struct {
	Viewport ViewportID
	When     time.Time
	Frame    uint64
}

// DestroyEvent is the last event of a run. The application saves its
// state when it is received.
type DestroyEvent struct{}

// RedrawEvent asks the application to paint a window. Deliver it
// wrapped in a WindowEvent.
type RedrawEvent struct{}

// CloseEvent is sent when the user asks to close a window.
type CloseEvent struct{}

// ResizeEvent reports the new size of a window in pixels.
type ResizeEvent struct {
	Size image.Point
}

// FocusEvent reports whether a window has keyboard focus.
type FocusEvent struct {
	Focus bool
}

// MotionEvent is raw relative pointer motion from a device.
type MotionEvent struct {
	DX, DY float64
}

func (c WakeCause) String() string {
	switch c {
	case WakeInit:
		return "Init"
	case WakePoll:
		return "Poll"
	case WakeWaitCancelled:
		return "WaitCancelled"
	case WakeTimeReached:
		return "TimeReached"
	default:
		panic(fmt.Sprintf("unexpected WakeCause value %d", uint8(c)))
	}
}

func (WakeEvent) ImplementsEvent()      {}
func (ResumeEvent) ImplementsEvent()    {}
func (SuspendEvent) ImplementsEvent()   {}
func (WindowEvent) ImplementsEvent()    {}
func (DeviceEvent) ImplementsEvent()    {}
func (RepaintRequest) ImplementsEvent() {}
func (DestroyEvent) ImplementsEvent()   {}
func (RedrawEvent) ImplementsEvent()    {}
func (CloseEvent) ImplementsEvent()     {}
func (ResizeEvent) ImplementsEvent()    {}
func (FocusEvent) ImplementsEvent()     {}
func (MotionEvent) ImplementsEvent()    {}
