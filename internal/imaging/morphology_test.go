package imaging

import (
	"image"
	"testing"
)

// maskWithRun builds a 40x20 mask with a horizontal white run of the
// given length starting at (x, y).
func maskWithRun(x, y, length int) *image.Gray {
	mask := image.NewGray(image.Rect(0, 0, 40, 20))
	for i := 0; i < length; i++ {
		mask.Pix[mask.PixOffset(x+i, y)] = 255
	}
	return mask
}

func countForeground(mask *image.Gray) int {
	n := 0
	for _, v := range mask.Pix {
		if v > 0 {
			n++
		}
	}
	return n
}

func TestOpenLineKeepsLongRun(t *testing.T) {
	mask := maskWithRun(2, 10, 30)

	opened := OpenLine(mask, 20, Horizontal)

	if countForeground(opened) == 0 {
		t.Fatal("30px run removed by 20px horizontal opening")
	}
	// The surviving pixels stay on the original row.
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			if opened.GrayAt(x, y).Y > 0 && y != 10 {
				t.Fatalf("foreground leaked to row %d", y)
			}
		}
	}
}

func TestOpenLineRemovesShortRun(t *testing.T) {
	mask := maskWithRun(5, 10, 8)

	opened := OpenLine(mask, 20, Horizontal)

	if n := countForeground(opened); n != 0 {
		t.Errorf("8px run survived 20px opening (%d pixels left)", n)
	}
}

func TestOpenLineVertical(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 20, 40))
	for y := 3; y < 35; y++ {
		mask.Pix[mask.PixOffset(8, y)] = 255
	}

	opened := OpenLine(mask, 20, Vertical)
	if countForeground(opened) == 0 {
		t.Error("long vertical run removed by vertical opening")
	}

	horizontal := OpenLine(mask, 20, Horizontal)
	if countForeground(horizontal) != 0 {
		t.Error("vertical stroke survived horizontal opening")
	}
}

func TestOr(t *testing.T) {
	a := maskWithRun(0, 0, 5)
	b := maskWithRun(0, 5, 5)

	combined := Or(a, b)

	if got := countForeground(combined); got != 10 {
		t.Errorf("union has %d pixels, want 10", got)
	}
}
