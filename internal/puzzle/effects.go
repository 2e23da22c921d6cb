package puzzle

import (
	"time"

	"github.com/roach88/complications/internal/trace"
)

type opKind int

const (
	opAfter opKind = iota
	opCancel
	opCancelAll
	opTrace
	opFail
)

type effect[E any] struct {
	kind      opKind
	key       string
	delay     time.Duration
	event     E
	traceKind trace.Kind
	detail    string
}

// Effects collects the side effects a reducer step asks for. They are
// applied in request order once the step has returned.
type Effects[E any] struct {
	ops []effect[E]
}

// After delivers ev back to the reducer once d has elapsed. A pending timer
// under the same key is cancelled first, so rescheduling a category never
// leaves a stale callback behind.
func (fx *Effects[E]) After(key string, d time.Duration, ev E) {
	fx.ops = append(fx.ops, effect[E]{kind: opAfter, key: key, delay: d, event: ev})
}

// Cancel drops the pending timer under key, if any.
func (fx *Effects[E]) Cancel(key string) {
	fx.ops = append(fx.ops, effect[E]{kind: opCancel, key: key})
}

// CancelAll drops every pending puzzle timer.
func (fx *Effects[E]) CancelAll() {
	fx.ops = append(fx.ops, effect[E]{kind: opCancelAll})
}

// Trace records a lifecycle event for the current puzzle.
func (fx *Effects[E]) Trace(kind trace.Kind, detail string) {
	fx.ops = append(fx.ops, effect[E]{kind: opTrace, traceKind: kind, detail: detail})
}

// Fail reports a recoverable puzzle failure to the machine's observers.
func (fx *Effects[E]) Fail(detail string) {
	fx.ops = append(fx.ops, effect[E]{kind: opFail, detail: detail})
}

// Len reports how many effects were requested. Tests use it to check that a
// step was a no-op.
func (fx *Effects[E]) Len() int { return len(fx.ops) }
