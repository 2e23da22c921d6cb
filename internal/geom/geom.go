// Package geom holds the pure angle and coordinate helpers used by the
// console engines.
//
// All angles are in degrees. Rotations are unbounded (they accumulate across
// full turns); Normalize maps them into [0, 360) when a bounded value is
// needed for comparison.
package geom

import "math"

// FullTurn is one revolution in degrees.
const FullTurn = 360.0

// Point is a 2D coordinate, either in device (pointer) space or in the
// logical frame, depending on where it came from.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Normalize maps an unbounded angle into [0, 360).
func Normalize(deg float64) float64 {
	n := math.Mod(deg, FullTurn)
	if n < 0 {
		n += FullTurn
	}
	// math.Mod(-0.0000001, 360) + 360 can round up to exactly 360.
	if n >= FullTurn {
		n = 0
	}
	return n
}

// CircularDistance is the smaller of the two arc lengths between a and b.
// The result is in [0, 180].
func CircularDistance(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	return math.Min(d, FullTurn-d)
}

// Within reports whether a and b are closer than tolerance on the circle.
func Within(a, b, tolerance float64) bool {
	return CircularDistance(a, b) < tolerance
}

// ShortestDelta returns the signed step from a to b in (-180, 180].
func ShortestDelta(a, b float64) float64 {
	d := Normalize(b - a)
	if d > FullTurn/2 {
		d -= FullTurn
	}
	return d
}

// Snap resolves an unbounded rotation to the nearest of the given base
// angles, keeping the result on the same revolution as rotation so that an
// animation towards it never travels the long way around.
//
// The base angle is chosen by circular distance on the normalized value and
// then lifted to the multi-turn equivalent closest to rotation: 400 with a
// base of 45 snaps to 405, not 45. Snap returns rotation unchanged when no
// targets are given.
func Snap(rotation float64, targets []float64) float64 {
	if len(targets) == 0 {
		return rotation
	}

	norm := Normalize(rotation)
	best := targets[0]
	bestDist := CircularDistance(norm, best)
	for _, t := range targets[1:] {
		if d := CircularDistance(norm, t); d < bestDist {
			best, bestDist = t, d
		}
	}

	return Lift(rotation, best)
}

// Lift returns the angle equivalent to base (mod 360) that lies closest to
// rotation.
func Lift(rotation, base float64) float64 {
	turns := math.Round((rotation - Normalize(base)) / FullTurn)
	return Normalize(base) + turns*FullTurn
}

// AngleFrom returns the direction from center to p in degrees, measured the
// way atan2 measures it in the frame the points are expressed in.
func AngleFrom(center, p Point) float64 {
	return math.Atan2(p.Y-center.Y, p.X-center.X) * 180 / math.Pi
}

// Rect is an axis-aligned box in device space.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame converts device-space pointer coordinates into the fixed logical
// reference frame the dial geometry is defined in.
//
// Anchor is where a non-rotating reference element of logical size Size
// currently sits on the device. Any scaling or letterboxing applied by the
// presentation layer is captured by that box, so the conversion does not
// depend on the rotating dial's own transform.
type Frame struct {
	Anchor Rect  `json:"anchor"`
	Size   Point `json:"size"`
}

// Resolved reports whether the anchor has been laid out yet.
func (f Frame) Resolved() bool {
	return f.Anchor.Width > 0 && f.Anchor.Height > 0 && f.Size.X > 0 && f.Size.Y > 0
}

// ToLogical maps a device point into the logical frame. It returns false when
// the anchor is not resolvable; callers treat that as invalid input.
func (f Frame) ToLogical(p Point) (Point, bool) {
	if !f.Resolved() {
		return Point{}, false
	}
	return Point{
		X: (p.X - f.Anchor.Left) * f.Size.X / f.Anchor.Width,
		Y: (p.Y - f.Anchor.Top) * f.Size.Y / f.Anchor.Height,
	}, true
}

// Identity returns a frame whose device and logical coordinates coincide for
// a logical area of the given size.
func Identity(size Point) Frame {
	return Frame{
		Anchor: Rect{Width: size.X, Height: size.Y},
		Size:   size,
	}
}
