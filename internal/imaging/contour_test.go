package imaging

import (
	"image"
	"testing"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

func fillRect(mask *image.Gray, x1, y1, x2, y2 int) {
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			mask.Pix[mask.PixOffset(x, y)] = 255
		}
	}
}

func TestFindContoursTwoBlobs(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 60, 60))
	fillRect(mask, 5, 5, 14, 14)
	fillRect(mask, 30, 30, 49, 39)

	contours := FindContours(mask, 10)
	if len(contours) != 2 {
		t.Fatalf("found %d contours, want 2", len(contours))
	}

	boxes := []geometry.Box{contours[0].BoundingBox(), contours[1].BoundingBox()}
	want := []geometry.Box{
		{X: 5, Y: 5, W: 10, H: 10},
		{X: 30, Y: 30, W: 20, H: 10},
	}
	for i, b := range boxes {
		if b != want[i] {
			t.Errorf("contour %d box = %+v, want %+v", i, b, want[i])
		}
	}
}

func TestFindContoursMinPoints(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 20, 20))
	fillRect(mask, 2, 2, 3, 3) // 4 pixels only

	if got := FindContours(mask, 10); len(got) != 0 {
		t.Errorf("noise blob of 4px survived minPoints=10: %d contours", len(got))
	}
	if got := FindContours(mask, 4); len(got) != 1 {
		t.Errorf("blob of 4px missed with minPoints=4: %d contours", len(got))
	}
}

func TestFindContoursDiagonalConnectivity(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	// A diagonal staircase is one 8-connected component.
	for i := 0; i < 6; i++ {
		mask.Pix[mask.PixOffset(i, i)] = 255
	}

	contours := FindContours(mask, 1)
	if len(contours) != 1 {
		t.Errorf("diagonal chain split into %d components", len(contours))
	}
}
