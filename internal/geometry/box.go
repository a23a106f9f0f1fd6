package geometry

import "image"

// Box is an axis-aligned integer rectangle in pixel coordinates,
// expressed as origin plus size.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// BoxFromRect converts a standard image.Rectangle.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Rect converts the box to a standard image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// Area returns the box area in square pixels. Never negative.
func (b Box) Area() int {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return b.W * b.H
}

// Aspect returns width divided by height. A zero-height box reports the
// width itself so thin slivers still compare as very wide.
func (b Box) Aspect() float64 {
	if b.H <= 0 {
		return float64(b.W)
	}
	return float64(b.W) / float64(b.H)
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Clamp constrains the box to lie within a width x height image. The
// origin is moved inside the image first, then the size is shrunk so the
// far edges do not spill past the image edges. The result may be empty.
func (b Box) Clamp(width, height int) Box {
	c := b
	if c.X < 0 {
		c.W += c.X
		c.X = 0
	}
	if c.Y < 0 {
		c.H += c.Y
		c.Y = 0
	}
	if c.X > width {
		c.X = width
	}
	if c.Y > height {
		c.Y = height
	}
	if c.X+c.W > width {
		c.W = width - c.X
	}
	if c.Y+c.H > height {
		c.H = height - c.Y
	}
	if c.W < 0 {
		c.W = 0
	}
	if c.H < 0 {
		c.H = 0
	}
	return c
}

// Pad grows the box symmetrically by pad pixels on every side.
func (b Box) Pad(pad int) Box {
	return Box{X: b.X - pad, Y: b.Y - pad, W: b.W + 2*pad, H: b.H + 2*pad}
}

// Translate shifts the box origin by (dx, dy).
func (b Box) Translate(dx, dy int) Box {
	return Box{X: b.X + dx, Y: b.Y + dy, W: b.W, H: b.H}
}

// Intersect returns the overlapping box of a and b, which is empty when
// they do not overlap.
func (b Box) Intersect(o Box) Box {
	left := max(b.X, o.X)
	top := max(b.Y, o.Y)
	right := min(b.X+b.W, o.X+o.W)
	bottom := min(b.Y+b.H, o.Y+o.H)
	if right <= left || bottom <= top {
		return Box{}
	}
	return Box{X: left, Y: top, W: right - left, H: bottom - top}
}

// IoU computes intersection-over-union of two boxes: the intersection
// area over the combined area. Returns 0 for disjoint or empty boxes.
func IoU(a, b Box) float64 {
	inter := a.Intersect(b).Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
