// SPDX-License-Identifier: Unlicense OR MIT

// Package access hands out the platform source of the callback that is
// running on the calling goroutine.
//
// A source is only valid while the platform callback that received it
// runs. With registers the source for exactly that scope and Current
// reads it back; nothing may keep the source beyond the scope.
package access

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
)

// ErrReentrant is the panic value cause when a goroutine that already
// holds a source tries to register another one.
var ErrReentrant = errors.New("access: a source is already live on this goroutine")

var slots struct {
	sync.Mutex
	m map[uint64]any
}

// With runs body with src registered as the live source of the calling
// goroutine. The registration is removed when body returns or panics.
//
// With panics if the goroutine already has a live source.
func With(src any, body func()) {
	id := goroutineID()
	acquire(id, src)
	defer release(id)
	body()
}

// Current calls f with the live source of the calling goroutine. It
// reports false, without calling f, outside of With or when the live
// source is not an S.
func Current[S, R any](f func(S) R) (R, bool) {
	var zero R
	slots.Lock()
	src, ok := slots.m[goroutineID()]
	slots.Unlock()
	if !ok {
		return zero, false
	}
	s, ok := src.(S)
	if !ok {
		return zero, false
	}
	return f(s), true
}

// Live reports whether the calling goroutine is inside With.
func Live() bool {
	id := goroutineID()
	slots.Lock()
	defer slots.Unlock()
	_, ok := slots.m[id]
	return ok
}

func acquire(id uint64, src any) {
	slots.Lock()
	defer slots.Unlock()
	if _, ok := slots.m[id]; ok {
		panic(fmt.Errorf("%w (goroutine %d)", ErrReentrant, id))
	}
	if slots.m == nil {
		slots.m = make(map[uint64]any)
	}
	slots.m[id] = src
}

func release(id uint64) {
	slots.Lock()
	defer slots.Unlock()
	delete(slots.m, id)
}

// goroutineID parses the id of the calling goroutine from the header of
// its stack trace, "goroutine 123 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		c := buf[i]
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
