// Package detect defines the candidate-producing detector abstraction
// used for grid extraction, plus a built-in detector that derives
// column and row candidates from table rulings.
package detect

import (
	"context"
	"image"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Candidate is one raw detection before overlap resolution and role
// filtering. Mask is optional; when present it marks the exact
// foreground pixels inside Box.
type Candidate struct {
	Label      string
	Confidence float64
	Box        geometry.Box
	Mask       *image.Gray
}

// Detector produces labeled candidates for an image. Implementations
// must drop candidates scoring below confFloor themselves so callers
// can rely on the floor regardless of backend. The context bounds
// detectors that call out to external inference services.
type Detector interface {
	Detect(ctx context.Context, img image.Image, confFloor float64) ([]Candidate, error)
}

// Axis selects which grid direction a ruling detector extracts.
type Axis int

const (
	Columns Axis = iota
	Rows
)

func (a Axis) String() string {
	if a == Rows {
		return "rows"
	}
	return "columns"
}
