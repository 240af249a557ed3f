// SPDX-License-Identifier: Unlicense OR MIT

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestEarliestNeverPostpones(t *testing.T) {
	var tab Table[string]
	tab.Earliest("w", at(10))
	tab.Earliest("w", at(20))
	got, ok := tab.Lookup("w")
	assert.True(t, ok)
	assert.Equal(t, at(10), got)

	tab.Earliest("w", at(5))
	got, _ = tab.Lookup("w")
	assert.Equal(t, at(5), got)
	assert.Equal(t, 1, tab.Len())
}

func TestSetOverrides(t *testing.T) {
	var tab Table[string]
	tab.Set("w", at(10))
	tab.Set("w", at(30))
	got, _ := tab.Lookup("w")
	assert.Equal(t, at(30), got)
}

func TestDrain(t *testing.T) {
	var tab Table[string]
	tab.Set("c", at(30))
	tab.Set("a", at(10))
	tab.Set("b", at(20))
	tab.Set("late", at(21))

	var order []string
	n := tab.Drain(at(20), func(k string) {
		order = append(order, k)
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"a", "b"}, order)

	// Entries due after now survive.
	assert.Equal(t, map[string]time.Time{"c": at(30), "late": at(21)}, tab.Snapshot())
}

func TestDrainEqualIsDue(t *testing.T) {
	var tab Table[int]
	tab.Set(1, at(10))
	assert.Equal(t, 1, tab.Drain(at(10), nil))
	assert.Zero(t, tab.Len())
}

func TestNext(t *testing.T) {
	var tab Table[int]
	_, ok := tab.Next()
	assert.False(t, ok)

	tab.Set(1, at(50))
	tab.Set(2, at(40))
	tab.Set(3, at(60))
	next, ok := tab.Next()
	assert.True(t, ok)
	assert.Equal(t, at(40), next)

	tab.Remove(2)
	next, _ = tab.Next()
	assert.Equal(t, at(50), next)
}

func TestSnapshotIsCopy(t *testing.T) {
	var tab Table[int]
	tab.Set(1, at(1))
	snap := tab.Snapshot()
	snap[2] = at(2)
	assert.Equal(t, 1, tab.Len())
}
