package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Crop extracts a rectangular region from an image as a fresh buffer.
// The box must already be clamped to the image bounds; an empty box
// yields a zero-size image.
func Crop(img image.Image, box geometry.Box) *image.NRGBA {
	return imaging.Crop(img, box.Rect().Add(img.Bounds().Min))
}

// MaskedCrop extracts a region but keeps only the pixels selected by the
// mask, blacking out the rest. The mask must be sized to the box; a nil
// mask degrades to a plain crop. Used when the external detector supplies
// per-box segmentation masks.
func MaskedCrop(img image.Image, box geometry.Box, mask *image.Gray) *image.NRGBA {
	cropped := Crop(img, box)
	if mask == nil {
		return cropped
	}

	bounds := cropped.Bounds()
	mb := mask.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			if y >= mb.Dy() || x >= mb.Dx() {
				continue
			}
			if mask.GrayAt(mb.Min.X+x, mb.Min.Y+y).Y == 0 {
				i := cropped.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)
				cropped.Pix[i+0] = 0
				cropped.Pix[i+1] = 0
				cropped.Pix[i+2] = 0
			}
		}
	}
	return cropped
}
