// Package boundary locates the outer edge of a scanned document sheet
// inside a larger photograph or scan.
package boundary

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/logging"
)

// Default detection thresholds.
const (
	defaultMinAreaFrac = 0.10
	strictMinAreaFrac  = 0.30
	defaultApproxFrac  = 0.02
	defaultMarginFrac  = 0.02

	cannyLow  = 50
	cannyHigh = 150
)

// Detector finds the dominant quadrilateral boundary in an image.
//
// # Algorithm
//
// The source is blurred, edge-detected with Canny, then the edge map is
// dilated twice and eroded once to close small gaps in the document
// outline. Connected components of the closed edge map are traced, each
// blob's convex hull is simplified with Douglas-Peucker at a tolerance of
// ApproxFrac times its perimeter, and the largest 4-vertex polygon
// covering at least MinAreaFrac of the image is taken as the boundary.
// When no blob qualifies, Detect falls back to the image's own corners
// inset by MarginFrac of the shorter side.
type Detector struct {
	// MinAreaFrac is the minimum fraction of the image area a candidate
	// quad must cover to be accepted.
	MinAreaFrac float64

	// ApproxFrac scales the polygon simplification tolerance relative to
	// the candidate's perimeter.
	ApproxFrac float64

	// MarginFrac sets the fallback inset relative to the shorter image
	// side.
	MarginFrac float64

	Log *logging.Logger
}

// New returns a Detector with the permissive default thresholds.
func New(log *logging.Logger) *Detector {
	return &Detector{
		MinAreaFrac: defaultMinAreaFrac,
		ApproxFrac:  defaultApproxFrac,
		MarginFrac:  defaultMarginFrac,
		Log:         log,
	}
}

// NewStrict returns a Detector that only accepts boundaries covering at
// least 30% of the image. Useful when the sheet is known to dominate the
// frame and partial quads should be rejected.
func NewStrict(log *logging.Logger) *Detector {
	d := New(log)
	d.MinAreaFrac = strictMinAreaFrac
	return d
}

// Detect locates the document boundary in img. The returned bool reports
// whether a real boundary was found; when false the quad is the inset
// image-corner fallback, which downstream stages can still rectify
// harmlessly.
func (d *Detector) Detect(img image.Image) (geometry.Quad, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	blurred := blur.Gaussian(img, 1.4)
	edges := cannyMask(blurred, cannyLow, cannyHigh)

	// Close gaps in the outline before tracing components.
	closed := effect.Dilate(edges, 2)
	closed = effect.Erode(closed, 1)
	mask := imaging.Binarize(closed, 128)

	contours := imaging.FindContours(mask, 4)

	imgArea := float64(w * h)
	bestArea := 0.0
	var best geometry.Quad
	found := false

	for _, c := range contours {
		hull := convexHull([]image.Point(c))
		if len(hull) < 4 {
			continue
		}
		tol := d.ApproxFrac * polygonPerimeter(hull)
		approx := approxPolygon(hull, tol)
		if len(approx) != 4 {
			continue
		}
		area := polygonArea(approx)
		if area < d.MinAreaFrac*imgArea || area <= bestArea {
			continue
		}
		bestArea = area
		best = quadFromPoints(approx)
		found = true
	}

	if found {
		d.Log.Debug("boundary detected",
			"area_frac", bestArea/imgArea,
			"contours", len(contours))
		return best, true
	}

	margin := d.MarginFrac * float64(min(w, h))
	d.Log.Warn("no boundary found, using inset image frame",
		"width", w, "height", h, "margin", margin)
	return geometry.ImageQuad(w, h, margin), false
}
