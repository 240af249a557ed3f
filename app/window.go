// SPDX-License-Identifier: Unlicense OR MIT

package app

import "loomui.org/io/event"

// Window is the platform side of an operating system window.
type Window interface {
	ID() WindowID
	// Minimized reports whether the window is minimized. Minimized
	// windows are not repainted.
	Minimized() bool
	// RequestRedraw asks the platform to deliver a system.RedrawEvent
	// for the window. Multiple requests may be coalesced.
	RequestRedraw()
}

// Source is the view of the platform that is valid for the duration
// of a single callback. Do not keep a Source beyond the callback that
// received it; use WithCurrentSource instead.
type Source interface {
	// SetControlFlow sets how long the platform may sleep after the
	// current batch of events.
	SetControlFlow(ControlFlow)
	// Exit asks the platform to stop running and return.
	Exit()
	// Exiting reports whether Exit was called.
	Exiting() bool
}

// Handler receives the events of a Platform. The platform calls Event
// from a single goroutine.
type Handler interface {
	Event(src Source, e event.Event)
}

// Platform is a platform event source.
type Platform interface {
	// Run delivers events to h until the loop exits.
	Run(h Handler) error
	// Send queues a user event, such as a system.RepaintRequest, and
	// wakes the platform. Send is safe for concurrent use.
	Send(e event.Event) error
}

// Application is a graphical application driven by a Driver. All
// methods are called from the goroutine running the platform.
//
// The event methods return an EventResult describing what to repaint,
// or an error that ends the loop.
type Application interface {
	// Resume is called when the application becomes active.
	Resume(src Source) (EventResult, error)
	// WindowEvent is called for events targeting window id.
	WindowEvent(src Source, id WindowID, e event.Event) (EventResult, error)
	// DeviceEvent is called for raw device input.
	DeviceEvent(src Source, id DeviceID, e event.Event) (EventResult, error)
	// Suspend is called when the application is put in the
	// background.
	Suspend(src Source) (EventResult, error)
	// Paint runs the user interface of window id and draws it.
	Paint(src Source, id WindowID) (EventResult, error)
	// Exiting saves the application state and releases its
	// resources.
	Exiting()

	// Window returns the window with the given id.
	Window(id WindowID) (Window, bool)
	// FrameNumber returns the number of frames painted for a
	// viewport.
	FrameNumber(vp ViewportID) uint64
	// ViewportWindow returns the window showing a viewport.
	ViewportWindow(vp ViewportID) (WindowID, bool)
}
