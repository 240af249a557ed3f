// SPDX-License-Identifier: Unlicense OR MIT

// Package schedule keeps per-window repaint deadlines.
package schedule

import (
	"slices"
	"time"

	"golang.org/x/exp/maps"
)

// Table maps keys to the instant their next repaint is due. It holds at
// most one deadline per key. The zero Table is empty and ready to use.
type Table[K comparable] struct {
	due map[K]time.Time
}

// Set replaces the deadline for k.
func (t *Table[K]) Set(k K, at time.Time) {
	if t.due == nil {
		t.due = make(map[K]time.Time)
	}
	t.due[k] = at
}

// Earliest sets the deadline for k to at, unless k already has an
// earlier one. A deadline is never pushed later.
func (t *Table[K]) Earliest(k K, at time.Time) {
	if old, ok := t.due[k]; ok && !at.Before(old) {
		return
	}
	t.Set(k, at)
}

// Remove drops the deadline for k, if any.
func (t *Table[K]) Remove(k K) {
	delete(t.due, k)
}

// Lookup returns the deadline for k.
func (t *Table[K]) Lookup(k K) (time.Time, bool) {
	at, ok := t.due[k]
	return at, ok
}

// Len returns the number of pending deadlines.
func (t *Table[K]) Len() int {
	return len(t.due)
}

// Next returns the earliest pending deadline.
func (t *Table[K]) Next() (time.Time, bool) {
	var next time.Time
	found := false
	for _, at := range t.due {
		if !found || at.Before(next) {
			next, found = at, true
		}
	}
	return next, found
}

// Drain removes every deadline at or before now and calls f with its
// key, earliest first. Deadlines after now are left untouched. Drain
// returns the number of removed deadlines.
func (t *Table[K]) Drain(now time.Time, f func(k K)) int {
	type entry struct {
		k  K
		at time.Time
	}
	var due []entry
	for k, at := range t.due {
		if !now.Before(at) {
			due = append(due, entry{k, at})
		}
	}
	slices.SortFunc(due, func(a, b entry) int {
		return a.at.Compare(b.at)
	})
	for _, e := range due {
		delete(t.due, e.k)
	}
	if f != nil {
		for _, e := range due {
			f(e.k)
		}
	}
	return len(due)
}

// Snapshot returns a copy of the pending deadlines.
func (t *Table[K]) Snapshot() map[K]time.Time {
	if t.due == nil {
		return make(map[K]time.Time)
	}
	return maps.Clone(t.due)
}
