// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"loomui.org/app"
	"loomui.org/app/headless"
	"loomui.org/internal/log"
	"loomui.org/io/event"
	"loomui.org/io/system"
	"loomui.org/storage"
)

// countKey is the storage key of the persisted count.
const countKey = "count"

// counter is an application with a single window. Every painted frame
// increments the count.
type counter struct {
	log   zerolog.Logger
	win   *headless.Window
	store *storage.FileStorage
	// limit is the number of frames to paint before exiting. Zero
	// means no limit.
	limit int
	// autoSave is the minimum interval between saves while running.
	// Zero saves only on exit.
	autoSave time.Duration
	now      func() time.Time
	lastSave time.Time

	frame atomic.Uint64
	count atomic.Int64
}

func newCounter(p *headless.Platform, store *storage.FileStorage, limit int, l zerolog.Logger) *counter {
	c := &counter{
		log:   log.Component(l, "counter"),
		win:   p.NewWindow("loomdemo"),
		store: store,
		limit: limit,
		now:   time.Now,
	}
	c.lastSave = c.now()
	if store == nil {
		return c
	}
	if v, ok := store.Get(countKey); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			c.log.Warn().Err(err).Str("value", v).Msg("ignoring stored count")
		} else {
			c.count.Store(n)
		}
	}
	return c
}

// Count returns the current count.
func (c *counter) Count() int64 {
	return c.count.Load()
}

// tick requests a repaint of the root viewport every d from a separate
// goroutine. The returned function stops the ticker.
func (c *counter) tick(p app.Platform, d time.Duration) (stop func()) {
	t := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case now := <-t.C:
				err := p.Send(system.RepaintRequest{
					Viewport: system.RootViewport,
					When:     now,
					Frame:    c.frame.Load(),
				})
				if err != nil {
					return
				}
			}
		}
	}()
	return func() {
		t.Stop()
		close(done)
	}
}

func (c *counter) Resume(app.Source) (app.EventResult, error) {
	c.log.Info().Int64("count", c.Count()).Msg("resumed")
	return app.RepaintNext(c.win.ID()), nil
}

func (c *counter) Suspend(app.Source) (app.EventResult, error) {
	return app.Wait(), nil
}

func (c *counter) WindowEvent(_ app.Source, _ app.WindowID, e event.Event) (app.EventResult, error) {
	switch e.(type) {
	case system.CloseEvent:
		return app.Exit(), nil
	case system.ResizeEvent:
		return app.RepaintNow(c.win.ID()), nil
	}
	return app.Wait(), nil
}

func (c *counter) DeviceEvent(app.Source, app.DeviceID, event.Event) (app.EventResult, error) {
	return app.Wait(), nil
}

func (c *counter) Paint(_ app.Source, id app.WindowID) (app.EventResult, error) {
	frame := c.frame.Add(1)
	n := c.count.Add(1)
	c.log.Debug().Uint64("frame", frame).Int64("count", n).Msg("paint")
	if c.store != nil {
		c.store.Set(countKey, strconv.FormatInt(n, 10))
		c.maybeSave()
	}
	if c.limit > 0 && frame >= uint64(c.limit) {
		return app.Exit(), nil
	}
	return app.Wait(), nil
}

// maybeSave starts a background save when autoSave has passed since
// the last one. Flush joins the previous save, so saves are spaced out
// to keep the loop from waiting on the disk.
func (c *counter) maybeSave() {
	if c.autoSave <= 0 {
		return
	}
	now := c.now()
	if now.Sub(c.lastSave) < c.autoSave {
		return
	}
	c.lastSave = now
	c.log.Debug().Msg("auto-saving")
	c.store.Flush()
}

func (c *counter) Exiting() {
	c.log.Info().Int64("count", c.Count()).Uint64("frames", c.frame.Load()).Msg("exiting")
	if c.store == nil {
		return
	}
	if err := c.store.Close(); err != nil {
		c.log.Warn().Err(err).Msg("failed to save count")
	}
}

func (c *counter) Window(id app.WindowID) (app.Window, bool) {
	if id != c.win.ID() {
		return nil, false
	}
	return c.win, true
}

func (c *counter) FrameNumber(system.ViewportID) uint64 {
	return c.frame.Load()
}

func (c *counter) ViewportWindow(vp system.ViewportID) (app.WindowID, bool) {
	if vp != system.RootViewport {
		return app.WindowID{}, false
	}
	return c.win.ID(), true
}
