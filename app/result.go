// SPDX-License-Identifier: Unlicense OR MIT

package app

import (
	"fmt"
	"time"
)

// ResultKind is the kind of an EventResult.
type ResultKind uint8

const (
	// ResultWait means nothing needs to be repainted.
	ResultWait ResultKind = iota
	// ResultRepaintNow asks for a repaint of Window right away.
	ResultRepaintNow
	// ResultRepaintNext asks for a repaint of Window on the next
	// iteration of the loop.
	ResultRepaintNext
	// ResultRepaintAt asks for a repaint of Window at At.
	ResultRepaintAt
	// ResultExit asks for the loop to exit.
	ResultExit
)

// EventResult is what an Application returns from its callbacks.
// Window is set for the repaint kinds, At for ResultRepaintAt only.
type EventResult struct {
	Kind   ResultKind
	Window WindowID
	At     time.Time
}

// Wait returns a result that schedules nothing.
func Wait() EventResult {
	return EventResult{Kind: ResultWait}
}

// RepaintNow returns a result asking for an immediate repaint of w.
func RepaintNow(w WindowID) EventResult {
	return EventResult{Kind: ResultRepaintNow, Window: w}
}

// RepaintNext returns a result asking for a repaint of w on the next
// loop iteration.
func RepaintNext(w WindowID) EventResult {
	return EventResult{Kind: ResultRepaintNext, Window: w}
}

// RepaintAt returns a result asking for a repaint of w at t.
func RepaintAt(w WindowID, t time.Time) EventResult {
	return EventResult{Kind: ResultRepaintAt, Window: w, At: t}
}

// Exit returns a result asking the loop to exit.
func Exit() EventResult {
	return EventResult{Kind: ResultExit}
}

func (r EventResult) String() string {
	switch r.Kind {
	case ResultWait:
		return "Wait"
	case ResultRepaintNow:
		return fmt.Sprintf("RepaintNow(%v)", r.Window)
	case ResultRepaintNext:
		return fmt.Sprintf("RepaintNext(%v)", r.Window)
	case ResultRepaintAt:
		return fmt.Sprintf("RepaintAt(%v, %s)", r.Window, r.At.Format(time.RFC3339Nano))
	case ResultExit:
		return "Exit"
	default:
		return fmt.Sprintf("EventResult(%d)", r.Kind)
	}
}

// FlowMode is the way a platform waits for the next event.
type FlowMode uint8

const (
	// FlowWait blocks until the next event.
	FlowWait FlowMode = iota
	// FlowPoll does not block.
	FlowPoll
	// FlowWaitUntil blocks until the next event or the deadline,
	// whichever comes first.
	FlowWaitUntil
)

// ControlFlow tells the platform how long it may sleep. Until is only
// meaningful for FlowWaitUntil.
type ControlFlow struct {
	Mode  FlowMode
	Until time.Time
}

func (c ControlFlow) String() string {
	switch c.Mode {
	case FlowWait:
		return "Wait"
	case FlowPoll:
		return "Poll"
	case FlowWaitUntil:
		return fmt.Sprintf("WaitUntil(%s)", c.Until.Format(time.RFC3339Nano))
	default:
		return fmt.Sprintf("ControlFlow(%d)", c.Mode)
	}
}
