// Package geometry provides the coordinate primitives shared by every
// pipeline stage: floating-point points, ordered quadrilaterals, and
// integer bounding boxes with overlap math.
package geometry

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate in image space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Corner indices of an ordered Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quad is a quadrilateral whose corners are ordered top-left, top-right,
// bottom-right, bottom-left. Use OrderCorners to construct one from
// arbitrarily ordered points; the ordering rule is the canonical rule used
// throughout the pipeline and is idempotent for convex quads.
type Quad [4]Point

// OrderCorners orders four points into the canonical TL/TR/BR/BL layout.
//
// The rule: the point with the minimum x+y sum is top-left and the maximum
// sum is bottom-right; of the remaining two, the minimum x-y difference is
// top-right and the other is bottom-left. Deterministic for any convex,
// non-degenerate quadrilateral.
func OrderCorners(pts [4]Point) Quad {
	var q Quad

	minSum, maxSum := 0, 0
	for i, p := range pts {
		if p.X+p.Y < pts[minSum].X+pts[minSum].Y {
			minSum = i
		}
		if p.X+p.Y > pts[maxSum].X+pts[maxSum].Y {
			maxSum = i
		}
	}
	q[TopLeft] = pts[minSum]
	q[BottomRight] = pts[maxSum]

	rest := make([]Point, 0, 2)
	for i, p := range pts {
		if i != minSum && i != maxSum {
			rest = append(rest, p)
		}
	}
	// Smaller x-y is the bottom-left candidate's mirror: the top-right
	// corner has the larger x and smaller y, so x-y is maximal there.
	if rest[0].X-rest[0].Y >= rest[1].X-rest[1].Y {
		q[TopRight] = rest[0]
		q[BottomLeft] = rest[1]
	} else {
		q[TopRight] = rest[1]
		q[BottomLeft] = rest[0]
	}

	return q
}

// ImageQuad returns the quad formed by an image's own corners, inset by
// margin pixels on every side. Used as the deterministic fallback when no
// document boundary can be detected.
func ImageQuad(width, height int, margin float64) Quad {
	w := float64(width)
	h := float64(height)
	return Quad{
		{X: margin, Y: margin},
		{X: w - margin, Y: margin},
		{X: w - margin, Y: h - margin},
		{X: margin, Y: h - margin},
	}
}

// EdgeLengths returns the lengths of the quad's four edges in
// top, right, bottom, left order.
func (q Quad) EdgeLengths() (top, right, bottom, left float64) {
	top = dist(q[TopLeft], q[TopRight])
	right = dist(q[TopRight], q[BottomRight])
	bottom = dist(q[BottomLeft], q[BottomRight])
	left = dist(q[TopLeft], q[BottomLeft])
	return top, right, bottom, left
}

func dist(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// GeometryError reports a degenerate geometric input, such as a collapsed
// quad or a non-positive rectification target. It is fatal to the current
// document run; the orchestrator decides whether an un-rectified pass is
// still feasible.
type GeometryError struct {
	Op     string
	Reason string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry: %s: %s", e.Op, e.Reason)
}
