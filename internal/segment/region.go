// Package segment extracts labeled regions from a rectified sheet image,
// whether from a fixed layout template, from morphological line analysis,
// or from an external detector, and resolves overlaps between them.
package segment

import (
	"image"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Kind classifies what a region contains, which drives downstream text
// recognition settings.
type Kind string

const (
	KindTable     Kind = "table"
	KindText      Kind = "text"
	KindDate      Kind = "date"
	KindPackage   Kind = "package"
	KindDigits    Kind = "digits"
	KindSignature Kind = "signature"
	KindColumn    Kind = "column"
	KindRow       Kind = "row"
)

// Source records which extraction stage produced a region.
type Source string

const (
	SourceTemplate Source = "template"
	SourceLines    Source = "lines"
	SourceDetector Source = "detector"
)

// Region is a labeled rectangular area of the rectified sheet. Mask,
// when a detector supplies one, selects the exact foreground pixels
// inside Box and is sized to it.
type Region struct {
	ID         string       `json:"id"`
	Kind       Kind         `json:"kind"`
	Box        geometry.Box `json:"box"`
	Confidence float64      `json:"confidence"`
	Source     Source       `json:"source"`
	Mask       *image.Gray  `json:"-"`
}

// AreaFrac returns the region's area as a fraction of a width x height
// frame.
func (r Region) AreaFrac(width, height int) float64 {
	total := width * height
	if total <= 0 {
		return 0
	}
	return float64(r.Box.Area()) / float64(total)
}
