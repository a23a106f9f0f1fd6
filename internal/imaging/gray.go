package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/segment"
)

// ToGray converts any image to 8-bit grayscale using ITU-R BT.601
// luminance weights (0.299*R + 0.587*G + 0.114*B).
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		out := image.NewGray(g.Bounds())
		if g.Stride == out.Stride {
			copy(out.Pix, g.Pix)
		} else {
			for y := g.Bounds().Min.Y; y < g.Bounds().Max.Y; y++ {
				for x := g.Bounds().Min.X; x < g.Bounds().Max.X; x++ {
					out.SetGray(x, y, g.GrayAt(x, y))
				}
			}
		}
		return out
	}

	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			out.SetGray(x, y, color.Gray{Y: uint8(lum)})
		}
	}
	return out
}

// Binarize thresholds an image at the given level: pixels at or above the
// level become white (255), the rest black (0).
func Binarize(img image.Image, level uint8) *image.Gray {
	return segment.Threshold(img, level)
}

// BinarizeOtsu thresholds a grayscale image at the level computed by
// Otsu's method, which maximizes the between-class variance of the
// foreground/background split. Suited to scans whose ink and paper
// intensities form two distinct histogram modes.
func BinarizeOtsu(img image.Image) *image.Gray {
	gray := ToGray(img)
	return segment.Threshold(gray, OtsuLevel(gray))
}

// OtsuLevel computes the Otsu threshold of a grayscale image.
func OtsuLevel(gray *image.Gray) uint8 {
	var hist [256]int
	total := 0
	bounds := gray.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[gray.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return 128
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumB, wB float64
	var best float64
	level := uint8(128)
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			level = uint8(i)
		}
	}
	return level
}

// Invert flips a grayscale image so dark ink becomes the white foreground
// expected by the morphological line operators.
func Invert(gray *image.Gray) *image.Gray {
	out := image.NewGray(gray.Bounds())
	for i, v := range gray.Pix {
		out.Pix[i] = 255 - v
	}
	return out
}
