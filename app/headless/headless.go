// SPDX-License-Identifier: Unlicense OR MIT

// Package headless implements a platform without operating system
// windows. Events are injected with Send and delivered to the handler
// on the goroutine calling Run.
package headless

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"loomui.org/app"
	"loomui.org/internal/log"
	"loomui.org/io/event"
	"loomui.org/io/system"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("headless: platform closed")
	// ErrRunning is returned by Run while another Run is active.
	ErrRunning = errors.New("headless: platform already running")
)

// Platform is a headless platform event source. It implements
// app.Platform, and app.Source for the handler callbacks.
type Platform struct {
	log zerolog.Logger

	mu      sync.Mutex
	queue   []event.Event
	redraws []system.WindowID
	windows map[system.WindowID]*Window
	closed  bool
	running bool
	// wakeups is notified when events or redraws are queued.
	wakeups chan struct{}

	// Fields below are only accessed by the goroutine in Run.
	flow    app.ControlFlow
	exiting bool
}

// Window is a headless window. It implements app.Window.
type Window struct {
	p         *Platform
	id        system.WindowID
	title     string
	minimized atomic.Bool
	pending   atomic.Bool
	redraws   atomic.Int64
}

// Option configures a Platform.
type Option func(p *Platform)

// WithLogger sets the logger of the platform.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Platform) {
		p.log = l
	}
}

// New creates a platform.
func New(opts ...Option) *Platform {
	p := &Platform{
		log:     log.Default(),
		windows: make(map[system.WindowID]*Window),
		wakeups: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(p)
	}
	p.log = log.Component(p.log, "headless")
	return p
}

// NewWindow creates a window. It is safe to call from any goroutine.
func (p *Platform) NewWindow(title string) *Window {
	w := &Window{p: p, id: system.NewWindowID(), title: title}
	p.mu.Lock()
	p.windows[w.id] = w
	p.mu.Unlock()
	return w
}

// Window returns the window with the given id.
func (p *Platform) Window(id system.WindowID) (*Window, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ok := p.windows[id]
	return w, ok
}

// CloseWindow forgets a window. Pending redraws for it are dropped.
func (p *Platform) CloseWindow(id system.WindowID) {
	p.mu.Lock()
	delete(p.windows, id)
	p.mu.Unlock()
}

// Send implements app.Platform.
func (p *Platform) Send(e event.Event) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.queue = append(p.queue, e)
	p.mu.Unlock()
	p.wakeup()
	return nil
}

// Close stops a running loop after the current event and makes
// further calls to Send and Run fail.
func (p *Platform) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wakeup()
}

// Run implements app.Platform. Run may be called again after it
// returns, reusing the platform and its windows.
func (p *Platform) Run(h app.Handler) error {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.running:
		p.mu.Unlock()
		return ErrRunning
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.exiting = false
	p.flow = app.ControlFlow{Mode: app.FlowWait}
	p.log.Trace().Msg("entering event loop")
	h.Event(p, system.WakeEvent{Cause: system.WakeInit})
	h.Event(p, system.ResumeEvent{})
	for {
		p.deliver(h)
		if p.exiting || p.isClosed() {
			break
		}
		cause := p.wait()
		if p.isClosed() {
			break
		}
		h.Event(p, system.WakeEvent{Cause: cause})
	}
	h.Event(p, system.DestroyEvent{})
	p.log.Debug().Msg("event loop exited")
	return nil
}

// SetControlFlow implements app.Source.
func (p *Platform) SetControlFlow(f app.ControlFlow) {
	p.flow = f
}

// ControlFlow returns the control flow set by the handler.
func (p *Platform) ControlFlow() app.ControlFlow {
	return p.flow
}

// Exit implements app.Source.
func (p *Platform) Exit() {
	p.exiting = true
}

// Exiting implements app.Source.
func (p *Platform) Exiting() bool {
	return p.exiting
}

// deliver hands the queued events to h, then the pending redraws.
func (p *Platform) deliver(h app.Handler) {
	for !p.exiting {
		e, ok := p.pop()
		if !ok {
			break
		}
		h.Event(p, e)
	}
	for _, id := range p.takeRedraws() {
		if p.exiting {
			return
		}
		w, ok := p.Window(id)
		if !ok {
			continue
		}
		w.pending.Store(false)
		w.redraws.Add(1)
		h.Event(p, system.WindowEvent{ID: id, Event: system.RedrawEvent{}})
	}
}

// wait blocks according to the control flow and returns why it woke.
// Queued events and redraws cancel any wait.
func (p *Platform) wait() system.WakeCause {
	if p.pending() {
		return system.WakeWaitCancelled
	}
	switch p.flow.Mode {
	case app.FlowPoll:
		return system.WakePoll
	case app.FlowWaitUntil:
		d := time.Until(p.flow.Until)
		if d <= 0 {
			return system.WakeTimeReached
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-p.wakeups:
			return system.WakeWaitCancelled
		case <-t.C:
			return system.WakeTimeReached
		}
	default:
		<-p.wakeups
		return system.WakeWaitCancelled
	}
}

func (p *Platform) wakeup() {
	select {
	case p.wakeups <- struct{}{}:
	default:
	}
}

func (p *Platform) pop() (event.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return nil, false
	}
	e := p.queue[0]
	p.queue[0] = nil
	p.queue = p.queue[1:]
	return e, true
}

func (p *Platform) takeRedraws() []system.WindowID {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := p.redraws
	p.redraws = nil
	return ids
}

func (p *Platform) pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) > 0 || len(p.redraws) > 0
}

func (p *Platform) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// ID implements app.Window.
func (w *Window) ID() system.WindowID {
	return w.id
}

// Title returns the title the window was created with.
func (w *Window) Title() string {
	return w.title
}

// Minimized implements app.Window.
func (w *Window) Minimized() bool {
	return w.minimized.Load()
}

// SetMinimized changes the minimized state of the window.
func (w *Window) SetMinimized(minimized bool) {
	w.minimized.Store(minimized)
}

// RequestRedraw implements app.Window. Requests made before the
// redraw is delivered are coalesced.
func (w *Window) RequestRedraw() {
	if w.pending.Swap(true) {
		return
	}
	w.p.mu.Lock()
	w.p.redraws = append(w.p.redraws, w.id)
	w.p.mu.Unlock()
	w.p.wakeup()
}

// Redraws returns the number of redraw events delivered for the
// window.
func (w *Window) Redraws() int {
	return int(w.redraws.Load())
}
