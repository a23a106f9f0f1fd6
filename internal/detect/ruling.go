package detect

import (
	"context"
	"fmt"
	"image"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
)

// RulingDetector finds grid candidates from the rulings of a cropped
// table: the bands between adjacent vertical rulings become column
// candidates, the bands between horizontal rulings become rows.
//
// Confidence is the coverage of the weaker of a band's two bounding
// rulings, so a band bounded by a broken or faint ruling scores low and
// gets removed by the caller's confidence floor.
type RulingDetector struct {
	Axis Axis

	// LineLength is the structuring element used to isolate rulings.
	LineLength int
}

// NewRulingDetector returns a detector for the given axis with the
// default ruling length.
func NewRulingDetector(axis Axis) *RulingDetector {
	return &RulingDetector{Axis: axis, LineLength: 40}
}

// Detect implements Detector.
func (d *RulingDetector) Detect(ctx context.Context, img image.Image, confFloor float64) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	length := d.LineLength
	// Shrink the element for small crops so short rulings still register.
	if d.Axis == Rows && length > w/2 {
		length = max(w/2, 8)
	}
	if d.Axis == Columns && length > h/2 {
		length = max(h/2, 8)
	}

	ink := imaging.Invert(imaging.BinarizeOtsu(img))

	var mask *image.Gray
	if d.Axis == Columns {
		mask = imaging.OpenLine(ink, length, imaging.Vertical)
	} else {
		mask = imaging.OpenLine(ink, length, imaging.Horizontal)
	}

	rulings := rulingPositions(mask, d.Axis, w, h)
	if len(rulings) < 2 {
		return nil, nil
	}

	var out []Candidate
	for i := 0; i < len(rulings)-1; i++ {
		lo, hi := rulings[i], rulings[i+1]
		if hi.pos-lo.pos < 2 {
			continue
		}
		conf := min(lo.coverage, hi.coverage)
		if conf < confFloor {
			continue
		}

		var box geometry.Box
		if d.Axis == Columns {
			box = geometry.Box{X: lo.pos, Y: 0, W: hi.pos - lo.pos + 1, H: h}
		} else {
			box = geometry.Box{X: 0, Y: lo.pos, W: w, H: hi.pos - lo.pos + 1}
		}
		out = append(out, Candidate{
			Label:      fmt.Sprintf("%s_band_%d", d.Axis, i),
			Confidence: conf,
			Box:        box,
		})
	}
	return out, nil
}

type ruling struct {
	pos      int
	coverage float64
}

// rulingPositions scans the opened mask perpendicular to the rulings and
// returns one position per distinct ruling, merging runs of adjacent
// occupied scanlines into their midpoint. Coverage is the occupied
// fraction of the strongest scanline in the run.
func rulingPositions(mask *image.Gray, axis Axis, w, h int) []ruling {
	limit, span := w, h
	if axis == Rows {
		limit, span = h, w
	}

	coverageAt := func(pos int) float64 {
		count := 0
		for s := 0; s < span; s++ {
			var v uint8
			if axis == Columns {
				v = mask.GrayAt(pos, s).Y
			} else {
				v = mask.GrayAt(s, pos).Y
			}
			if v > 0 {
				count++
			}
		}
		return float64(count) / float64(span)
	}

	var out []ruling
	runStart := -1
	runBest := 0.0
	flush := func(end int) {
		if runStart < 0 {
			return
		}
		out = append(out, ruling{pos: (runStart + end) / 2, coverage: runBest})
		runStart = -1
		runBest = 0
	}

	for pos := 0; pos < limit; pos++ {
		c := coverageAt(pos)
		if c > 0.05 {
			if runStart < 0 {
				runStart = pos
			}
			if c > runBest {
				runBest = c
			}
			continue
		}
		flush(pos - 1)
	}
	flush(limit - 1)
	return out
}
