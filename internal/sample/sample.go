// Package sample holds the constrained random generators for puzzle
// content. Each function documents its constraint and is testable on its
// own, independent of the engines that consume it.
package sample

import (
	"fmt"

	"github.com/roach88/complications/internal/rng"
)

// Position is a tri-state slider value.
type Position int

const (
	Left   Position = -1
	Center Position = 0
	Right  Position = 1
)

// Valid reports whether p is one of Left, Center, Right.
func (p Position) Valid() bool {
	return p >= Left && p <= Right
}

// Opposite returns the mirrored position. Center is its own opposite.
func (p Position) Opposite() Position {
	return -p
}

func (p Position) String() string {
	switch p {
	case Left:
		return "left"
	case Center:
		return "center"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Position(%d)", int(p))
	}
}

// SliderTargets draws n independent slider targets.
//
// Constraint: each target is in {Left, Center, Right}; when maxed the Center
// option is removed and each target is in {Left, Right}.
func SliderTargets(src rng.Source, n int, maxed bool) []Position {
	out := make([]Position, n)
	for i := range out {
		if maxed {
			out[i] = EndPosition(src)
			continue
		}
		out[i] = Position(src.IntN(3) - 1)
	}
	return out
}

// EndPosition draws Left or Right with equal probability. Never Center.
func EndPosition(src rng.Source) Position {
	if src.IntN(2) == 0 {
		return Left
	}
	return Right
}

// MaxRepeats is the most times one button may appear in a sequence.
const MaxRepeats = 2

// Sequence draws length button indices in [0, buttons).
//
// Constraint: no index appears more than MaxRepeats times. Length must not
// exceed buttons*MaxRepeats; larger requests are clamped.
func Sequence(src rng.Source, length, buttons int) []int {
	if buttons <= 0 || length <= 0 {
		return nil
	}
	if limit := buttons * MaxRepeats; length > limit {
		length = limit
	}

	counts := make([]int, buttons)
	out := make([]int, 0, length)
	for len(out) < length {
		allowed := make([]int, 0, buttons)
		for b, c := range counts {
			if c < MaxRepeats {
				allowed = append(allowed, b)
			}
		}
		b := allowed[src.IntN(len(allowed))]
		counts[b]++
		out = append(out, b)
	}
	return out
}

// Pick draws one element of choices uniformly.
func Pick[T any](src rng.Source, choices []T) T {
	return choices[src.IntN(len(choices))]
}

// PickOther draws uniformly from choices excluding every element equal to
// current. If nothing else is available it returns current.
func PickOther[T comparable](src rng.Source, choices []T, current T) T {
	others := make([]T, 0, len(choices))
	for _, c := range choices {
		if c != current {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return current
	}
	return others[src.IntN(len(others))]
}
