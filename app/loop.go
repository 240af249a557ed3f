// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"loomui.org/app/internal/access"
	"loomui.org/app/internal/schedule"
	"loomui.org/internal/log"
	"loomui.org/io/event"
	"loomui.org/io/system"
)

// ErrNoAccess is the panic value when an Application is dispatched to
// outside of a platform callback.
var ErrNoAccess = errors.New("app: dispatch outside of a platform callback")

// State is the state of a Driver.
type State uint8

const (
	// StateIdle is the state between events.
	StateIdle State = iota
	// StateDispatching is the state while an event is handled.
	StateDispatching
	// StateExiting is entered on an Exit result or an application
	// error, and never left.
	StateExiting
)

// Driver routes platform events to an Application and schedules
// repaints. It implements Handler.
type Driver struct {
	app Application
	cnf Config
	log zerolog.Logger

	due   schedule.Table[WindowID]
	flow  ControlFlow
	state State
	err   error
	// saved is set once Application.Exiting has run.
	saved bool
}

// NewDriver returns a driver for a.
func NewDriver(a Application, opts ...Option) *Driver {
	d := &Driver{app: a}
	d.cnf.apply(opts)
	d.log = log.Component(d.cnf.Logger, "runloop")
	return d
}

// Run drives a with the events of p until the loop exits. It returns
// the first application error, if any.
func Run(p Platform, a Application, opts ...Option) error {
	d := NewDriver(a, opts...)
	d.log.Trace().Bool("run_and_return", d.cnf.RunAndReturn).Msg("entering event loop")
	if err := p.Run(d); err != nil {
		return fmt.Errorf("app: run platform: %w", err)
	}
	if d.cnf.RunAndReturn {
		d.log.Debug().Msg("event loop returned")
	} else {
		d.log.Debug().Msg("event loop unexpectedly returned")
	}
	return d.err
}

// Event implements Handler.
func (d *Driver) Event(src Source, e event.Event) {
	access.With(src, func() {
		switch e := e.(type) {
		case system.WakeEvent:
			if e.Cause == system.WakeTimeReached {
				d.log.Trace().Msg("woke up to check next repaint time")
			}
			d.checkDue(src, d.cnf.Now())
			return
		case system.DestroyEvent:
			if d.saved {
				d.log.Trace().Msg("loop exiting, state already saved")
				return
			}
			d.log.Debug().Msg("loop exiting, saving application state")
			d.saved = true
			d.app.Exiting()
			return
		}
		if d.state != StateExiting {
			d.state = StateDispatching
		}
		res, err := d.dispatch(src, e)
		d.handleResult(src, res, err)
		if d.state == StateDispatching {
			d.state = StateIdle
		}
	})
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Err returns the first application error.
func (d *Driver) Err() error {
	return d.err
}

// ControlFlow returns the last control flow sent to the platform.
func (d *Driver) ControlFlow() ControlFlow {
	return d.flow
}

// Due returns a copy of the pending repaint deadlines.
func (d *Driver) Due() map[WindowID]time.Time {
	return d.due.Snapshot()
}

// dispatch forwards e to the application. It must be called inside a
// platform callback.
func (d *Driver) dispatch(src Source, e event.Event) (EventResult, error) {
	if !access.Live() {
		panic(ErrNoAccess)
	}
	switch e := e.(type) {
	case system.ResumeEvent:
		return d.app.Resume(src)
	case system.SuspendEvent:
		return d.app.Suspend(src)
	case system.WindowEvent:
		switch e.Event.(type) {
		case system.RedrawEvent:
			d.due.Remove(e.ID)
			return d.app.Paint(src, e.ID)
		case system.CloseEvent:
			d.due.Remove(e.ID)
		}
		return d.app.WindowEvent(src, e.ID, e.Event)
	case system.DeviceEvent:
		return d.app.DeviceEvent(src, e.ID, e.Event)
	case system.RepaintRequest:
		return d.repaintRequest(e), nil
	default:
		d.log.Trace().Str("event", fmt.Sprintf("%T", e)).Msg("ignoring event")
		return Wait(), nil
	}
}

// repaintRequest converts a request from another goroutine into a
// RepaintAt result. Requests for frames older than the current one are
// stale: the repaint they asked for already happened.
func (d *Driver) repaintRequest(r system.RepaintRequest) EventResult {
	current := d.app.FrameNumber(r.Viewport)
	if r.Frame != current && r.Frame != current+1 {
		d.log.Trace().
			Uint64("frame", r.Frame).
			Uint64("current", current).
			Msg("discarding outdated repaint request")
		return Wait()
	}
	w, ok := d.app.ViewportWindow(r.Viewport)
	if !ok {
		return Wait()
	}
	d.log.Trace().Time("when", r.When).Msg("scheduling requested repaint")
	return RepaintAt(w, r.When)
}

func (d *Driver) handleResult(src Source, res EventResult, err error) {
	exit := false
	if err == nil {
		d.log.Trace().Stringer("result", res).Msg("event result")
		exit, err = d.apply(src, res, d.cnf.RepaintNow == RepaintImmediate)
	}
	if err != nil {
		d.log.Error().Err(err).Msg("exiting due to error")
		exit = true
		if d.err == nil {
			d.err = err
		}
	}
	if exit {
		d.exit(src)
	}
	d.checkDue(src, d.cnf.Now())
}

// apply records res in the repaint table. It reports whether res asks
// to exit.
func (d *Driver) apply(src Source, res EventResult, immediate bool) (bool, error) {
	switch res.Kind {
	case ResultWait:
		d.setFlow(src, ControlFlow{Mode: FlowWait})
	case ResultRepaintNow:
		if !immediate {
			d.due.Set(res.Window, d.cnf.Now())
			break
		}
		d.log.Trace().Stringer("window", res.Window).Msg("painting now")
		d.due.Remove(res.Window)
		paint, err := d.app.Paint(src, res.Window)
		if err != nil {
			return false, err
		}
		return d.apply(src, paint, false)
	case ResultRepaintNext:
		d.due.Set(res.Window, d.cnf.Now())
	case ResultRepaintAt:
		d.due.Earliest(res.Window, res.At)
	case ResultExit:
		return true, nil
	default:
		return false, fmt.Errorf("app: unknown event result kind %d", res.Kind)
	}
	return false, nil
}

func (d *Driver) exit(src Source) {
	d.state = StateExiting
	if d.cnf.RunAndReturn {
		d.log.Debug().Msg("requesting event loop exit")
		src.Exit()
		return
	}
	d.log.Debug().Msg("quitting, saving application state")
	d.saved = true
	d.app.Exiting()
	d.log.Debug().Msg("exiting with status 0")
	d.cnf.ProcessExit(0)
}

// checkDue requests a redraw of every window whose deadline has
// passed and sets the control flow to wake up for the next one.
// Minimized and unknown windows lose their deadline without a redraw.
func (d *Driver) checkDue(src Source, now time.Time) {
	n := d.due.Drain(now, func(id WindowID) {
		w, ok := d.app.Window(id)
		if !ok {
			d.log.Trace().Stringer("window", id).Msg("window not found")
			return
		}
		if w.Minimized() {
			d.log.Trace().Stringer("window", id).Msg("skipping minimized window")
			return
		}
		d.log.Trace().Stringer("window", id).Msg("requesting redraw")
		w.RequestRedraw()
	})
	next, ok := d.due.Next()
	switch {
	case ok:
		d.setFlow(src, ControlFlow{Mode: FlowWaitUntil, Until: next})
	case n > 0:
		d.setFlow(src, ControlFlow{Mode: FlowPoll})
	default:
		d.setFlow(src, ControlFlow{Mode: FlowWait})
	}
}

func (d *Driver) setFlow(src Source, f ControlFlow) {
	d.flow = f
	src.SetControlFlow(f)
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDispatching:
		return "Dispatching"
	case StateExiting:
		return "Exiting"
	default:
		panic("unexpected State value")
	}
}
