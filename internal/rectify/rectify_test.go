package rectify

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

func TestHomographyIdentity(t *testing.T) {
	q := geometry.Quad{
		{X: 0, Y: 0}, {X: 99, Y: 0}, {X: 99, Y: 49}, {X: 0, Y: 49},
	}
	h, err := computeHomography(q, q)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []geometry.Point{{X: 10, Y: 10}, {X: 50, Y: 25}, {X: 99, Y: 49}} {
		x, y := h.apply(p.X, p.Y)
		if math.Abs(x-p.X) > 1e-6 || math.Abs(y-p.Y) > 1e-6 {
			t.Errorf("identity maps (%v,%v) to (%v,%v)", p.X, p.Y, x, y)
		}
	}
}

func TestHomographyMapsCorners(t *testing.T) {
	from := geometry.Quad{
		{X: 0, Y: 0}, {X: 199, Y: 0}, {X: 199, Y: 99}, {X: 0, Y: 99},
	}
	to := geometry.Quad{
		{X: 12, Y: 8}, {X: 180, Y: 15}, {X: 190, Y: 110}, {X: 5, Y: 95},
	}
	h, err := computeHomography(from, to)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		x, y := h.apply(from[i].X, from[i].Y)
		if math.Abs(x-to[i].X) > 1e-6 || math.Abs(y-to[i].Y) > 1e-6 {
			t.Errorf("corner %d maps to (%v,%v), want (%v,%v)", i, x, y, to[i].X, to[i].Y)
		}
	}
}

func TestHomographyDegenerate(t *testing.T) {
	// All four corners collinear.
	q := geometry.Quad{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 20}, {X: 30, Y: 30},
	}
	dst := geometry.Quad{
		{X: 0, Y: 0}, {X: 99, Y: 0}, {X: 99, Y: 99}, {X: 0, Y: 99},
	}
	if _, err := computeHomography(q, dst); err == nil {
		t.Fatal("expected error for collinear corners")
	}
}

func TestRectifyIdentityPreservesPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			src.SetNRGBA(x, y, color.NRGBA{uint8(x * 6), uint8(y * 8), 100, 255})
		}
	}

	quad := geometry.Quad{
		{X: 0, Y: 0}, {X: 39, Y: 0}, {X: 39, Y: 29}, {X: 0, Y: 29},
	}
	out, err := Rectify(src, quad, 40, 30)
	if err != nil {
		t.Fatal(err)
	}

	for _, pt := range []image.Point{{0, 0}, {20, 15}, {39, 29}} {
		got := out.NRGBAAt(pt.X, pt.Y)
		want := src.NRGBAAt(pt.X, pt.Y)
		if got != want {
			t.Errorf("pixel %v = %v, want %v", pt, got, want)
		}
	}
}

func TestRectifyRejectsEmptyTarget(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	quad := geometry.ImageQuad(10, 10, 0)

	_, err := Rectify(src, quad, 0, 100)
	if err == nil {
		t.Fatal("expected error for zero-width target")
	}
	var ge *geometry.GeometryError
	if !errors.As(err, &ge) {
		t.Errorf("error type = %T, want *geometry.GeometryError", err)
	}
}

func TestTargetFromQuad(t *testing.T) {
	q := geometry.Quad{
		{X: 0, Y: 0}, {X: 120, Y: 0}, {X: 120, Y: 80}, {X: 0, Y: 80},
	}
	w, h := TargetFromQuad(q)
	if w != 120 || h != 80 {
		t.Errorf("target = %dx%d, want 120x80", w, h)
	}

	// Skewed quad: the longer of each opposing pair wins.
	skew := geometry.Quad{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 110, Y: 60}, {X: 0, Y: 50},
	}
	w, h = TargetFromQuad(skew)
	top, right, bottom, left := skew.EdgeLengths()
	if w != int(math.Round(math.Max(top, bottom))) {
		t.Errorf("width = %d, want max(top=%v, bottom=%v)", w, top, bottom)
	}
	if h != int(math.Round(math.Max(left, right))) {
		t.Errorf("height = %d, want max(left=%v, right=%v)", h, left, right)
	}
}
