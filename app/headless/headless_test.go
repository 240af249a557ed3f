// SPDX-License-Identifier: Unlicense OR MIT

package headless

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loomui.org/app"
	"loomui.org/io/event"
	"loomui.org/io/system"
)

// scriptApp is an application with a single window whose callbacks
// are replaced per test.
type scriptApp struct {
	win   *Window
	frame atomic.Uint64
	exits int

	resume func(src app.Source) (app.EventResult, error)
	window func(src app.Source, e event.Event) (app.EventResult, error)
	paint  func(src app.Source, frame uint64) (app.EventResult, error)
}

func (a *scriptApp) Resume(src app.Source) (app.EventResult, error) {
	if a.resume == nil {
		return app.Wait(), nil
	}
	return a.resume(src)
}

func (a *scriptApp) WindowEvent(src app.Source, _ app.WindowID, e event.Event) (app.EventResult, error) {
	if a.window == nil {
		return app.Wait(), nil
	}
	return a.window(src, e)
}

func (a *scriptApp) DeviceEvent(app.Source, app.DeviceID, event.Event) (app.EventResult, error) {
	return app.Wait(), nil
}

func (a *scriptApp) Suspend(app.Source) (app.EventResult, error) {
	return app.Wait(), nil
}

func (a *scriptApp) Paint(src app.Source, _ app.WindowID) (app.EventResult, error) {
	n := a.frame.Add(1)
	if a.paint == nil {
		return app.Wait(), nil
	}
	return a.paint(src, n)
}

func (a *scriptApp) Exiting() { a.exits++ }

func (a *scriptApp) Window(id app.WindowID) (app.Window, bool) {
	if id != a.win.ID() {
		return nil, false
	}
	return a.win, true
}

func (a *scriptApp) FrameNumber(app.ViewportID) uint64 { return a.frame.Load() }

func (a *scriptApp) ViewportWindow(vp app.ViewportID) (app.WindowID, bool) {
	if vp != system.RootViewport {
		return app.WindowID{}, false
	}
	return a.win.ID(), true
}

func newTestPlatform() (*Platform, *scriptApp) {
	p := New(WithLogger(zerolog.Nop()))
	return p, &scriptApp{win: p.NewWindow("test")}
}

// run runs a on p and fails the test if the loop does not return in
// time.
func run(t *testing.T, p *Platform, a app.Application) error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- app.Run(p, a, app.RunAndReturn(true), app.WithLogger(zerolog.Nop()))
	}()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		p.Close()
		t.Fatal("event loop did not exit")
		return nil
	}
}

func TestAnimation(t *testing.T) {
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		return app.RepaintNext(a.win.ID()), nil
	}
	a.paint = func(_ app.Source, frame uint64) (app.EventResult, error) {
		if frame == 3 {
			return app.Exit(), nil
		}
		return app.RepaintAt(a.win.ID(), time.Now().Add(5*time.Millisecond)), nil
	}

	require.NoError(t, run(t, p, a))
	assert.Equal(t, 3, a.win.Redraws())
	assert.Equal(t, uint64(3), a.frame.Load())
	assert.Equal(t, 1, a.exits)
}

func TestRepaintRequestFromGoroutine(t *testing.T) {
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		go func() {
			p.Send(system.RepaintRequest{
				Viewport: system.RootViewport,
				When:     time.Now(),
				Frame:    a.frame.Load(),
			})
		}()
		return app.Wait(), nil
	}
	a.paint = func(app.Source, uint64) (app.EventResult, error) {
		return app.Exit(), nil
	}

	require.NoError(t, run(t, p, a))
	assert.Equal(t, 1, a.win.Redraws())
}

func TestSendWakesWaitUntil(t *testing.T) {
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			p.Send(system.WindowEvent{ID: a.win.ID(), Event: system.CloseEvent{}})
		}()
		return app.RepaintAt(a.win.ID(), time.Now().Add(time.Hour)), nil
	}
	a.window = func(src app.Source, e event.Event) (app.EventResult, error) {
		if _, ok := e.(system.CloseEvent); ok {
			return app.Exit(), nil
		}
		return app.Wait(), nil
	}

	start := time.Now()
	require.NoError(t, run(t, p, a))
	assert.Less(t, time.Since(start), time.Minute)
	assert.Zero(t, a.win.Redraws())
}

func TestMinimizedWindowIsNotRedrawn(t *testing.T) {
	p, a := newTestPlatform()
	a.win.SetMinimized(true)
	a.resume = func(app.Source) (app.EventResult, error) {
		go p.Send(system.WindowEvent{ID: a.win.ID(), Event: system.CloseEvent{}})
		return app.RepaintNext(a.win.ID()), nil
	}
	a.window = func(app.Source, event.Event) (app.EventResult, error) {
		return app.Exit(), nil
	}

	require.NoError(t, run(t, p, a))
	assert.Zero(t, a.win.Redraws())
}

func TestRunTwice(t *testing.T) {
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		return app.Exit(), nil
	}
	require.NoError(t, run(t, p, a))
	require.NoError(t, run(t, p, a))
	assert.Equal(t, 2, a.exits)
}

func TestApplicationError(t *testing.T) {
	errBoom := errors.New("boom")
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		return app.EventResult{}, errBoom
	}
	assert.ErrorIs(t, run(t, p, a), errBoom)
	assert.Equal(t, 1, a.exits)
}

func TestClosed(t *testing.T) {
	p, a := newTestPlatform()
	p.Close()
	assert.ErrorIs(t, p.Send(system.ResumeEvent{}), ErrClosed)
	assert.ErrorIs(t, run(t, p, a), ErrClosed)
}

func TestCloseStopsWaitingLoop(t *testing.T) {
	p, a := newTestPlatform()
	a.resume = func(app.Source) (app.EventResult, error) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			p.Close()
		}()
		return app.Wait(), nil
	}
	require.NoError(t, run(t, p, a))
	assert.Equal(t, 1, a.exits)
}

func TestConcurrentRun(t *testing.T) {
	p, a := newTestPlatform()
	started := make(chan struct{})
	a.resume = func(app.Source) (app.EventResult, error) {
		close(started)
		return app.Wait(), nil
	}
	done := make(chan error, 1)
	go func() { done <- p.Run(app.NewDriver(a, app.WithLogger(zerolog.Nop()))) }()
	<-started

	assert.ErrorIs(t, p.Run(app.NewDriver(a)), ErrRunning)
	p.Close()
	assert.NoError(t, <-done)
}

func TestRequestRedrawCoalesces(t *testing.T) {
	p := New(WithLogger(zerolog.Nop()))
	w := p.NewWindow("w")
	w.RequestRedraw()
	w.RequestRedraw()
	assert.Equal(t, []system.WindowID{w.ID()}, p.takeRedraws())
	assert.Equal(t, "w", w.Title())

	got, ok := p.Window(w.ID())
	require.True(t, ok)
	assert.Same(t, w, got)
	p.CloseWindow(w.ID())
	_, ok = p.Window(w.ID())
	assert.False(t, ok)
}
