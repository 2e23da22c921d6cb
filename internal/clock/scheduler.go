// Package clock provides the single logical clock every console engine
// schedules against.
//
// Nothing here starts goroutines or reads wall time. A Scheduler only moves
// forward when its owner calls Advance, which makes timer-driven puzzle
// behavior (flash playback, shake windows, the recently-fixed window)
// deterministic and directly testable.
//
// Thread-safety: Scheduler and Group are NOT safe for concurrent use. They
// belong to the single goroutine that owns the console.
package clock

import (
	"container/heap"
	"time"
)

// TimerID identifies a scheduled callback. The zero value is never issued.
type TimerID uint64

type timer struct {
	id  TimerID
	due time.Duration
	fn  func()
}

// Scheduler is a logical clock with a queue of deferred callbacks.
//
// Callbacks fire in due order; callbacks due at the same instant fire in the
// order they were scheduled.
type Scheduler struct {
	now   time.Duration
	seq   uint64
	queue timerHeap
	live  map[TimerID]*timer
}

// New creates a scheduler at logical time zero.
func New() *Scheduler {
	return &Scheduler{live: make(map[TimerID]*timer)}
}

// Now returns the current logical time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// After schedules fn to run once d has elapsed on the logical clock.
// Negative delays are treated as zero.
func (s *Scheduler) After(d time.Duration, fn func()) TimerID {
	if d < 0 {
		d = 0
	}
	s.seq++
	t := &timer{id: TimerID(s.seq), due: s.now + d, fn: fn}
	s.live[t.id] = t
	heap.Push(&s.queue, t)
	return t.id
}

// Cancel invalidates a pending timer. It reports whether the timer was still
// pending; cancelling a fired or unknown timer is a no-op.
func (s *Scheduler) Cancel(id TimerID) bool {
	if _, ok := s.live[id]; !ok {
		return false
	}
	delete(s.live, id)
	return true
}

// Pending returns the number of timers that have not fired or been cancelled.
func (s *Scheduler) Pending() int {
	return len(s.live)
}

// NextDue returns the due time of the earliest pending timer.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	for s.queue.Len() > 0 {
		t := s.queue[0]
		if _, ok := s.live[t.id]; ok {
			return t.due, true
		}
		heap.Pop(&s.queue)
	}
	return 0, false
}

// Advance moves the clock forward by d and fires every timer that becomes
// due, including timers scheduled by callbacks during the advance. It returns
// the number of callbacks fired.
func (s *Scheduler) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	return s.AdvanceTo(s.now + d)
}

// AdvanceTo moves the clock to target (never backwards) and fires due timers.
// While a callback runs, Now reports that callback's due time.
func (s *Scheduler) AdvanceTo(target time.Duration) int {
	if target < s.now {
		target = s.now
	}

	fired := 0
	for {
		due, ok := s.NextDue()
		if !ok || due > target {
			break
		}
		t := heap.Pop(&s.queue).(*timer)
		delete(s.live, t.id)
		s.now = t.due
		t.fn()
		fired++
	}
	s.now = target
	return fired
}

// timerHeap orders timers by due time, then by scheduling order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*timer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
