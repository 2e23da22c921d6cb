// Package input carries raw pointer events and the scoped subscriptions that
// let a drag follow the pointer across the whole surface.
package input

import (
	"fmt"

	"github.com/roach88/complications/internal/geom"
)

// Kind is the pointer event type. Presses are not published: a drag
// session starts with the engine that owns the pressed element, and only
// the movement and release that follow go surface-wide.
type Kind int

const (
	Move Kind = iota
	Up
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Up:
		return "up"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Pointer is a pointer event in device coordinates.
type Pointer struct {
	Kind Kind
	At   geom.Point
}

// Hub fans surface-wide pointer events out to active subscribers.
//
// Subscriptions are explicit pairs: Subscribe returns the function that ends
// it. A subscriber may unsubscribe from inside its own callback.
//
// Thread-safety: NOT safe for concurrent use; it lives on the console
// goroutine like the engines that subscribe to it.
type Hub struct {
	next int
	subs []subscription
}

type subscription struct {
	id int
	fn func(Pointer)
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers fn and returns its unsubscribe function. Calling the
// returned function more than once is harmless.
func (h *Hub) Subscribe(fn func(Pointer)) (unsubscribe func()) {
	h.next++
	id := h.next
	h.subs = append(h.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers p to every subscriber registered when Publish was called.
func (h *Hub) Publish(p Pointer) {
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	for _, s := range subs {
		s.fn(p)
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	return len(h.subs)
}
