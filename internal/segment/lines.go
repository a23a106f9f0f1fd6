package segment

import (
	"fmt"
	"image"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/logging"
)

// Line-extraction defaults. The structuring element length bounds the
// shortest ruling the extractor will keep, and the size floor discards
// incidental box shapes like logos or stamp frames.
const (
	defaultLineLength = 40
	defaultMinTableW  = 100
	defaultMinTableH  = 50
	lineConfidence    = 0.8

	// Rulings closer than this many pixels are counted as one line.
	distinctLineGap = 10
)

// LineExtractor finds table regions by isolating long horizontal and
// vertical rulings in a binarized sheet.
type LineExtractor struct {
	LineLength int
	MinTableW  int
	MinTableH  int
	Log        *logging.Logger
}

// NewLineExtractor returns an extractor with the default thresholds.
func NewLineExtractor(log *logging.Logger) *LineExtractor {
	return &LineExtractor{
		LineLength: defaultLineLength,
		MinTableW:  defaultMinTableW,
		MinTableH:  defaultMinTableH,
		Log:        log,
	}
}

// Extract finds ruled-table regions in img. The image is binarized with
// an adaptive threshold and inverted so ink is foreground, then opened
// with a long horizontal and a long vertical structuring element. The
// union of the two ruling masks is traced into connected components;
// components over the table size floor that hold at least two rulings
// per axis become table regions.
//
// Returns regions sorted by the traversal order of FindContours. An
// image with no rulings yields an empty slice, not an error.
func (e *LineExtractor) Extract(img image.Image) []Region {
	ink := imaging.Invert(imaging.BinarizeOtsu(img))

	horiz := imaging.OpenLine(ink, e.LineLength, imaging.Horizontal)
	vert := imaging.OpenLine(ink, e.LineLength, imaging.Vertical)
	grid := imaging.Or(horiz, vert)

	contours := imaging.FindContours(grid, e.LineLength)

	var regions []Region
	for _, c := range contours {
		box := c.BoundingBox()
		if box.W < e.MinTableW || box.H < e.MinTableH {
			continue
		}
		// A ruled table is bounded by at least two rulings per axis;
		// anything less is a stray line or bracket, not a cell grid.
		rows := distinctRuns(horiz, box, imaging.Horizontal)
		cols := distinctRuns(vert, box, imaging.Vertical)
		if rows < 2 || cols < 2 {
			e.Log.Debug("rejecting lined candidate without a cell grid",
				"box", box, "h_lines", rows, "v_lines", cols)
			continue
		}
		e.Log.Debug("table candidate",
			"box", box, "h_lines", rows, "v_lines", cols)

		regions = append(regions, Region{
			ID:         fmt.Sprintf("table_%d", len(regions)+1),
			Kind:       KindTable,
			Box:        box,
			Confidence: lineConfidence,
			Source:     SourceLines,
		})
	}
	return regions
}

// distinctRuns counts how many separate rulings of the given orientation
// cross a box, merging rulings closer than distinctLineGap. A horizontal
// ruling occupies a y position, a vertical ruling an x position.
func distinctRuns(mask *image.Gray, box geometry.Box, o imaging.Orientation) int {
	var positions []int
	if o == imaging.Horizontal {
		for y := box.Y; y < box.Y+box.H; y++ {
			if rowHasInk(mask, box, y) {
				positions = append(positions, y)
			}
		}
	} else {
		for x := box.X; x < box.X+box.W; x++ {
			if colHasInk(mask, box, x) {
				positions = append(positions, x)
			}
		}
	}

	count := 0
	last := -distinctLineGap - 1
	for _, p := range positions {
		if p-last > distinctLineGap {
			count++
		}
		last = p
	}
	return count
}

func rowHasInk(mask *image.Gray, box geometry.Box, y int) bool {
	for x := box.X; x < box.X+box.W; x++ {
		if mask.GrayAt(x, y).Y > 0 {
			return true
		}
	}
	return false
}

func colHasInk(mask *image.Gray, box geometry.Box, x int) bool {
	for y := box.Y; y < box.Y+box.H; y++ {
		if mask.GrayAt(x, y).Y > 0 {
			return true
		}
	}
	return false
}
