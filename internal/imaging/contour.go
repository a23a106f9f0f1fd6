package imaging

import (
	"image"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Contour is a connected component of foreground pixels in a binary mask.
// Points are in mask coordinates and unordered.
type Contour []image.Point

// BoundingBox returns the axis-aligned box enclosing the contour.
func (c Contour) BoundingBox() geometry.Box {
	if len(c) == 0 {
		return geometry.Box{}
	}
	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return geometry.Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// FindContours finds connected components of foreground (non-zero) pixels
// in a binary mask using 8-connected flood fill. Components smaller than
// minPoints pixels are discarded as noise.
func FindContours(mask *image.Gray, minPoints int) []Contour {
	bounds := mask.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	visited := make([]bool, w*h)
	isFG := func(x, y int) bool {
		return mask.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > 0
	}

	var contours []Contour
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if visited[y*w+x] || !isFG(x, y) {
				continue
			}
			contour := floodFill(isFG, visited, x, y, w, h)
			if len(contour) >= minPoints {
				contours = append(contours, contour)
			}
		}
	}
	return contours
}

// floodFill collects one 8-connected component with an explicit stack to
// avoid recursion depth limits on large blobs.
func floodFill(isFG func(x, y int) bool, visited []bool, startX, startY, w, h int) Contour {
	stack := []image.Point{{X: startX, Y: startY}}
	var contour Contour

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= w || p.Y < 0 || p.Y >= h {
			continue
		}
		if visited[p.Y*w+p.X] || !isFG(p.X, p.Y) {
			continue
		}

		visited[p.Y*w+p.X] = true
		contour = append(contour, p)

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
	return contour
}
