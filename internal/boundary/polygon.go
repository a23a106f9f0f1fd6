package boundary

import (
	"image"
	"math"
	"sort"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// convexHull computes the convex hull of a point set with the monotone
// chain algorithm. The hull is returned in counter-clockwise order (in
// image coordinates, where Y grows downward, this appears clockwise on
// screen). Contour blobs from flood fill are unordered, so the hull is
// what gives the subsequent polygon approximation a traversal order.
func convexHull(points []image.Point) []image.Point {
	if len(points) < 3 {
		return points
	}

	pts := make([]image.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var lower []image.Point
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper []image.Point
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// approxPolygon simplifies a closed polygon with the Douglas-Peucker
// algorithm at the given absolute tolerance. The polygon is split at its
// two mutually farthest vertices and each open chain is simplified
// independently, which keeps the result closed and order-preserving.
func approxPolygon(poly []image.Point, tolerance float64) []image.Point {
	if len(poly) <= 3 {
		return poly
	}

	// Find the farthest vertex pair as the split anchors.
	ai, bi := 0, 0
	best := -1.0
	for i := 0; i < len(poly); i++ {
		for j := i + 1; j < len(poly); j++ {
			d := ptDistSq(poly[i], poly[j])
			if d > best {
				best = d
				ai, bi = i, j
			}
		}
	}

	chainA := append([]image.Point{}, poly[ai:bi+1]...)
	chainB := append(append([]image.Point{}, poly[bi:]...), poly[:ai+1]...)

	simpA := douglasPeucker(chainA, tolerance)
	simpB := douglasPeucker(chainB, tolerance)

	// Both chains include the anchor endpoints; drop the duplicates.
	out := append([]image.Point{}, simpA...)
	if len(simpB) > 2 {
		out = append(out, simpB[1:len(simpB)-1]...)
	}
	return out
}

func douglasPeucker(chain []image.Point, tolerance float64) []image.Point {
	if len(chain) <= 2 {
		return chain
	}

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(chain)-1; i++ {
		d := pointSegmentDist(chain[i], chain[0], chain[len(chain)-1])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tolerance {
		return []image.Point{chain[0], chain[len(chain)-1]}
	}

	left := douglasPeucker(chain[:maxIdx+1], tolerance)
	right := douglasPeucker(chain[maxIdx:], tolerance)
	return append(left[:len(left)-1], right...)
}

func pointSegmentDist(p, a, b image.Point) float64 {
	dx := float64(b.X - a.X)
	dy := float64(b.Y - a.Y)
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Sqrt(ptDistSq(p, a))
	}
	t := (float64(p.X-a.X)*dx + float64(p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	px := float64(a.X) + t*dx
	py := float64(a.Y) + t*dy
	ddx := float64(p.X) - px
	ddy := float64(p.Y) - py
	return math.Sqrt(ddx*ddx + ddy*ddy)
}

func ptDistSq(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return dx*dx + dy*dy
}

// polygonArea computes the absolute area of a polygon by the shoelace
// formula.
func polygonArea(poly []image.Point) float64 {
	if len(poly) < 3 {
		return 0
	}
	sum := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += float64(poly[i].X)*float64(poly[j].Y) - float64(poly[j].X)*float64(poly[i].Y)
	}
	return math.Abs(sum) / 2
}

// polygonPerimeter computes the closed perimeter length of a polygon.
func polygonPerimeter(poly []image.Point) float64 {
	sum := 0.0
	for i := range poly {
		j := (i + 1) % len(poly)
		sum += math.Sqrt(ptDistSq(poly[i], poly[j]))
	}
	return sum
}

// quadFromPoints converts an approximated 4-vertex polygon to an ordered
// Quad.
func quadFromPoints(poly []image.Point) geometry.Quad {
	var pts [4]geometry.Point
	for i := 0; i < 4; i++ {
		pts[i] = geometry.Point{X: float64(poly[i].X), Y: float64(poly[i].Y)}
	}
	return geometry.OrderCorners(pts)
}
