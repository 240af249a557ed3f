// SPDX-License-Identifier: Unlicense OR MIT

/*
Package app runs a graphical application on top of a platform event
source.

# Run loop

A Platform owns the operating system windows and delivers events to a
Handler on a single goroutine. Driver is the Handler: it forwards every
event to an Application, interprets the returned EventResult and tells
the platform how long it may sleep before the next event:

	p, _ := headless.New()
	err := app.Run(p, myApp, app.RunAndReturn(true))

Application callbacks never run concurrently. Other goroutines request
repaints by sending a system.RepaintRequest through Platform.Send.

# Repaint scheduling

The driver keeps one repaint deadline per window. RepaintNext schedules
a repaint for now, RepaintAt for a later instant; a later RepaintAt
never postpones an earlier deadline. Due windows are asked to redraw
unless they are minimized, and the platform is told to wait until the
next pending deadline, or indefinitely when none is left.

# Source access

The Source passed to callbacks is only valid during the callback. Code
deeper in the call stack reaches it with WithCurrentSource instead of
storing it.
*/
package app
