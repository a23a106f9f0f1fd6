// Package rectify warps a quadrilateral region of an image onto an
// axis-aligned rectangle, removing perspective distortion.
package rectify

import (
	"fmt"
	"image"
	"math"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Default rectification target, matching a landscape A4-ish sheet.
const (
	DefaultWidth  = 1200
	DefaultHeight = 900
)

// TargetFromQuad returns a target size that preserves the source scale:
// the larger of each pair of opposing edge lengths, rounded to the
// nearest pixel.
func TargetFromQuad(q geometry.Quad) (width, height int) {
	top, right, bottom, left := q.EdgeLengths()
	width = int(math.Round(math.Max(top, bottom)))
	height = int(math.Round(math.Max(left, right)))
	return width, height
}

// Rectify warps the region of img bounded by quad onto a new width x
// height image. The quad must be in canonical corner order; the output
// maps its top-left corner to (0,0) and bottom-right to (width-1,
// height-1). Pixels that project outside the source are filled black.
//
// Returns a *geometry.GeometryError when the target size is not positive
// or the quad is too degenerate to invert.
func Rectify(img image.Image, quad geometry.Quad, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, &geometry.GeometryError{
			Op:     "rectify",
			Reason: fmt.Sprintf("non-positive target size %dx%d", width, height),
		}
	}

	// Map output corners to source corners; sampling then only needs the
	// single destination->source homography.
	dst := geometry.Quad{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}
	hm, err := computeHomography(dst, quad)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	src := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			src.Set(x, y, img.At(x, y))
		}
	}

	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			sx, sy := hm.apply(float64(x), float64(y))
			r, g, bl, a := bilinear(src, sx, sy)
			i := out.PixOffset(x, y)
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = bl
			out.Pix[i+3] = a
		}
	}
	return out, nil
}

// homography is a 3x3 projective transform in row-major order with
// h[8] fixed to 1.
type homography [9]float64

func (h homography) apply(x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return -1, -1
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// computeHomography solves for the transform taking the four points of
// from to the four points of to, using the standard 8x8 linear system
// with Gaussian elimination and partial pivoting.
func computeHomography(from, to geometry.Quad) (homography, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := from[i].X, from[i].Y
		dx, dy := to[i].X, to[i].Y
		a[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		a[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-10 {
			return homography{}, &geometry.GeometryError{
				Op:     "homography",
				Reason: "degenerate corner configuration",
			}
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var h homography
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	h[8] = 1
	return h, nil
}

// bilinear samples src at a fractional coordinate. Out-of-bounds samples
// return transparent-less black so warped borders stay clean.
func bilinear(src *image.NRGBA, x, y float64) (r, g, b, a uint8) {
	bounds := src.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 < bounds.Min.X-1 || y0 < bounds.Min.Y-1 || x0 > bounds.Max.X-1 || y0 > bounds.Max.Y-1 {
		return 0, 0, 0, 255
	}

	fx := x - float64(x0)
	fy := y - float64(y0)

	sample := func(px, py int) (float64, float64, float64, float64) {
		if px < bounds.Min.X || py < bounds.Min.Y || px >= bounds.Max.X || py >= bounds.Max.Y {
			return 0, 0, 0, 255
		}
		i := src.PixOffset(px, py)
		return float64(src.Pix[i]), float64(src.Pix[i+1]), float64(src.Pix[i+2]), float64(src.Pix[i+3])
	}

	r00, g00, b00, a00 := sample(x0, y0)
	r10, g10, b10, a10 := sample(x0+1, y0)
	r01, g01, b01, a01 := sample(x0, y0+1)
	r11, g11, b11, a11 := sample(x0+1, y0+1)

	lerp2 := func(v00, v10, v01, v11 float64) uint8 {
		top := v00 + (v10-v00)*fx
		bot := v01 + (v11-v01)*fx
		v := top + (bot-top)*fy
		return uint8(math.Round(math.Max(0, math.Min(255, v))))
	}

	return lerp2(r00, r10, r01, r11),
		lerp2(g00, g10, g01, g11),
		lerp2(b00, b10, b01, b11),
		lerp2(a00, a10, a01, a11)
}
