package clock

import "time"

// Group tracks the timers one owner has scheduled, keyed by category.
//
// Setting a key cancels whatever was pending under that key, so a restarted
// timeline can never race its previous run. CancelAll is the teardown path.
type Group struct {
	s      *Scheduler
	timers map[string]TimerID
}

// NewGroup creates an empty group on this scheduler.
func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s, timers: make(map[string]TimerID)}
}

// Scheduler returns the scheduler the group schedules on.
func (g *Group) Scheduler() *Scheduler {
	return g.s
}

// Set schedules fn under key after d, replacing any pending timer for key.
func (g *Group) Set(key string, d time.Duration, fn func()) {
	g.Cancel(key)

	var id TimerID
	id = g.s.After(d, func() {
		if g.timers[key] == id {
			delete(g.timers, key)
		}
		fn()
	})
	g.timers[key] = id
}

// Cancel invalidates the pending timer for key, if any.
func (g *Group) Cancel(key string) bool {
	id, ok := g.timers[key]
	if !ok {
		return false
	}
	delete(g.timers, key)
	return g.s.Cancel(id)
}

// CancelAll invalidates every pending timer in the group.
func (g *Group) CancelAll() {
	for key, id := range g.timers {
		g.s.Cancel(id)
		delete(g.timers, key)
	}
}

// Pending reports whether key has a timer that has not fired yet.
func (g *Group) Pending(key string) bool {
	_, ok := g.timers[key]
	return ok
}

// Len returns the number of pending timers in the group.
func (g *Group) Len() int {
	return len(g.timers)
}
