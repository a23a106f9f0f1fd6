// Package ocr turns region crops into text. The Tesseract-backed
// recognizer is compiled in only with the "ocr" build tag so the rest of
// the pipeline builds without the native tesseract/leptonica libraries.
package ocr

import (
	"context"
	"errors"
	"image"

	disimg "github.com/disintegration/imaging"

	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/segment"
)

// ErrNotEnabled is returned when the binary was built without the "ocr"
// build tag, which compiles out the Tesseract dependency.
var ErrNotEnabled = errors.New("ocr: built without the ocr tag, text recognition unavailable")

// Mode selects the recognition strategy for a crop: the page
// segmentation mode and character whitelist handed to the engine.
type Mode int

const (
	// ModeBlock reads dense multi-line content such as table bodies.
	ModeBlock Mode = iota
	// ModeLine reads a single line, for date and package header fields.
	ModeLine
	// ModeSparse scatters over handwriting and signature blocks.
	ModeSparse
	// ModeDigits reads a single numeric line.
	ModeDigits
)

// Character whitelists per mode. Empty means unrestricted.
const (
	alnumWhitelist  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz.,-:/ "
	digitsWhitelist = "0123456789."
)

// Whitelist returns the character set for the mode, or "" for
// unrestricted recognition.
func (m Mode) Whitelist() string {
	switch m {
	case ModeBlock:
		return alnumWhitelist
	case ModeDigits:
		return digitsWhitelist
	default:
		return ""
	}
}

// ModeForKind maps a region's content kind to its recognition mode.
// Grid row cells hold numeric readings, so they get the digit whitelist
// in single-line mode rather than the free-text block settings.
func ModeForKind(k segment.Kind) Mode {
	switch k {
	case segment.KindTable, segment.KindColumn:
		return ModeBlock
	case segment.KindDigits, segment.KindRow:
		return ModeDigits
	case segment.KindSignature:
		return ModeSparse
	default:
		return ModeLine
	}
}

// Recognizer extracts text from a prepared crop. Implementations return
// "" with a nil error for legible-but-empty regions; errors are reserved
// for engine failures.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image, mode Mode) (string, error)
}

// PrepareRegion preprocesses a crop for its content kind before
// recognition. All kinds are grayscaled and contrast-stretched;
// signature blocks are additionally binarized so faint pen strokes
// survive, and digit fields are upscaled because seven-segment-style
// handwriting tends to be small.
func PrepareRegion(crop image.Image, kind segment.Kind) image.Image {
	gray := disimg.Grayscale(crop)
	gray = disimg.AdjustContrast(gray, 15)

	switch kind {
	case segment.KindSignature:
		return imaging.BinarizeOtsu(gray)
	case segment.KindDigits, segment.KindRow:
		b := gray.Bounds()
		return disimg.Resize(gray, b.Dx()*2, b.Dy()*2, disimg.Lanczos)
	case segment.KindTable:
		return disimg.Sharpen(gray, 0.8)
	default:
		return gray
	}
}
