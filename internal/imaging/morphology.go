package imaging

import "image"

// Orientation selects the axis of a 1-D structuring element.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// ErodeLine erodes a binary mask with a 1-D structuring element of the
// given length along the given orientation: a pixel survives only when
// every pixel under the element is foreground (255). A horizontal element
// of length k wipes out any white run shorter than k, leaving only long
// horizontal strokes; vertically likewise.
func ErodeLine(mask *image.Gray, length int, o Orientation) *image.Gray {
	return slideLine(mask, length, o, true)
}

// DilateLine dilates a binary mask with a 1-D structuring element: a
// pixel becomes foreground when any pixel under the element is.
func DilateLine(mask *image.Gray, length int, o Orientation) *image.Gray {
	return slideLine(mask, length, o, false)
}

// OpenLine applies a morphological opening (erode then dilate) with a 1-D
// element, isolating strokes at least length pixels long along the chosen
// orientation. This is the ruling-line detector's core operation: a wide,
// flat element keeps horizontal rules, a tall, thin one keeps verticals.
func OpenLine(mask *image.Gray, length int, o Orientation) *image.Gray {
	return DilateLine(ErodeLine(mask, length, o), length, o)
}

// Or combines two binary masks of equal bounds into their union.
func Or(a, b *image.Gray) *image.Gray {
	bounds := a.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if a.GrayAt(x, y).Y > 0 || b.GrayAt(x, y).Y > 0 {
				out.Pix[out.PixOffset(x, y)] = 255
			}
		}
	}
	return out
}

// slideLine runs a sliding window of the given length over each row or
// column, counting foreground pixels. Erosion requires the window full,
// dilation requires it non-empty. The window is centered on the output
// pixel; positions hanging past the image edge are treated as background.
func slideLine(mask *image.Gray, length int, o Orientation, erode bool) *image.Gray {
	if length < 1 {
		length = 1
	}
	bounds := mask.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	out := image.NewGray(bounds)

	half := length / 2
	fg := func(x, y int) int {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		if mask.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y > 0 {
			return 1
		}
		return 0
	}
	set := func(x, y int, on bool) {
		if on {
			out.Pix[out.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)] = 255
		}
	}

	if o == Horizontal {
		for y := 0; y < h; y++ {
			count := 0
			for x := -half; x < length-half; x++ {
				count += fg(x, y)
			}
			for x := 0; x < w; x++ {
				if erode {
					set(x, y, count == length)
				} else {
					set(x, y, count > 0)
				}
				count -= fg(x-half, y)
				count += fg(x-half+length, y)
			}
		}
		return out
	}

	for x := 0; x < w; x++ {
		count := 0
		for y := -half; y < length-half; y++ {
			count += fg(x, y)
		}
		for y := 0; y < h; y++ {
			if erode {
				set(x, y, count == length)
			} else {
				set(x, y, count > 0)
			}
			count -= fg(x, y-half)
			count += fg(x, y-half+length)
		}
	}
	return out
}
