// Package complication models the externally owned list of active
// complications that the console engines reconcile against.
//
// The list is read-only to the engines. The only way an engine influences it
// is the Resolver callback, which asks the list's owner to clear an id.
package complication

import (
	"fmt"
	"sort"
	"strings"
)

// Type tags a complication with the minigame that resolves it.
type Type string

const (
	Laser    Type = "laser"
	Lights   Type = "lights"
	Controls Type = "controls"
)

// Types lists the complication types this console knows how to resolve,
// in display order.
var Types = []Type{Laser, Lights, Controls}

// ParseType converts a user-supplied name into a known Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown complication type %q", s)
}

// Complication is one active fault instance.
type Complication struct {
	ID   string `json:"id" yaml:"id"`
	Type Type   `json:"type" yaml:"type"`
}

// List is an ordered snapshot of the active complications. It holds at most
// one complication of each type.
type List []Complication

// Find returns the complication of type t, if present.
func (l List) Find(t Type) (Complication, bool) {
	for _, c := range l {
		if c.Type == t {
			return c, true
		}
	}
	return Complication{}, false
}

// Has reports whether a complication of type t is present.
func (l List) Has(t Type) bool {
	_, ok := l.Find(t)
	return ok
}

// Clone returns an independent copy.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// Resolver is notified exactly once per solved puzzle instance.
type Resolver interface {
	ResolveComplication(id string)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(id string)

// ResolveComplication implements Resolver.
func (f ResolverFunc) ResolveComplication(id string) {
	f(id)
}

// Maxed reports the permanent difficulty-reduction flag for a minigame.
type Maxed interface {
	IsMaxed(t Type) bool
}

// MaxedSet is a Maxed backed by a map. The zero value reports nothing maxed.
type MaxedSet map[Type]bool

// IsMaxed implements Maxed.
func (m MaxedSet) IsMaxed(t Type) bool {
	return m[t]
}

// Sorted returns the maxed types in a stable order.
func (m MaxedSet) Sorted() []Type {
	var out []Type
	for t, on := range m {
		if on {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
