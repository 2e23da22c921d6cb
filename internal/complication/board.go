package complication

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyActive is returned when spawning a type that is already present.
var ErrAlreadyActive = errors.New("complication type already active")

// ResolveHook observes complications cleared through ResolveComplication.
type ResolveHook func(c Complication)

// Board is a minimal owner of the complication list: it spawns, removes and
// resolves entries and hands out snapshots. It stands in for the gameplay
// generator that normally owns the list.
//
// Board enforces the one-per-type invariant the engines rely on.
//
// Thread-safety: all methods are safe for concurrent use.
type Board struct {
	mu      sync.Mutex
	ids     IDGenerator
	list    List
	version uint64
	hooks   []ResolveHook
}

// NewBoard creates an empty board that names complications with ids.
// A nil generator defaults to UUIDv7Generator.
func NewBoard(ids IDGenerator) *Board {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &Board{ids: ids}
}

// OnResolve registers a hook called after a complication is resolved.
// Hooks run outside the board lock.
func (b *Board) OnResolve(h ResolveHook) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks = append(b.hooks, h)
}

// Spawn adds a complication of type t.
func (b *Board) Spawn(t Type) (Complication, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.list.Has(t) {
		return Complication{}, fmt.Errorf("spawn %s: %w", t, ErrAlreadyActive)
	}
	c := Complication{ID: b.ids.Generate(), Type: t}
	b.list = append(b.list, c)
	b.version++
	return c, nil
}

// Remove drops the complication of type t without resolving it.
// It reports whether anything was removed.
func (b *Board) Remove(t Type) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.list {
		if c.Type == t {
			b.list = append(b.list[:i:i], b.list[i+1:]...)
			b.version++
			return true
		}
	}
	return false
}

// ResolveComplication implements Resolver. Unknown ids are ignored, which
// makes repeated resolution of the same id harmless.
func (b *Board) ResolveComplication(id string) {
	b.mu.Lock()
	var (
		resolved Complication
		found    bool
	)
	for i, c := range b.list {
		if c.ID == id {
			resolved, found = c, true
			b.list = append(b.list[:i:i], b.list[i+1:]...)
			b.version++
			break
		}
	}
	hooks := append([]ResolveHook(nil), b.hooks...)
	b.mu.Unlock()

	if !found {
		return
	}
	for _, h := range hooks {
		h(resolved)
	}
}

// Snapshot returns a copy of the current list.
func (b *Board) Snapshot() List {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.list.Clone()
}

// Version increases on every change to the list.
func (b *Board) Version() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.version
}

// Missing returns the known types that are not currently active.
func (b *Board) Missing() []Type {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Type
	for _, t := range Types {
		if !b.list.Has(t) {
			out = append(out, t)
		}
	}
	return out
}
