// Package pipeline orchestrates the full sheet run: boundary detection,
// rectification, region extraction, grid assignment and text
// recognition.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"golang.org/x/sync/errgroup"

	"github.com/sheetgrid/sheetgrid/internal/boundary"
	"github.com/sheetgrid/sheetgrid/internal/detect"
	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/logging"
	"github.com/sheetgrid/sheetgrid/internal/ocr"
	"github.com/sheetgrid/sheetgrid/internal/rectify"
	"github.com/sheetgrid/sheetgrid/internal/segment"
)

// Extraction modes.
const (
	ModeTemplate = "template"
	ModeDetector = "detector"
)

// Options configures a Pipeline.
type Options struct {
	// Mode selects how sections are located: ModeTemplate scales a fixed
	// layout over the rectified sheet, ModeDetector finds the table and
	// its grid from the image content alone.
	Mode string

	// Template used in ModeTemplate. Nil selects the built-in layout.
	Template *segment.Template

	// Columns and Rows bound the grid index space.
	Columns int
	Rows    int

	// ConfFloor is passed to detectors; candidates below it never reach
	// overlap resolution.
	ConfFloor float64

	// IoU is the overlap threshold for non-maximum suppression.
	IoU float64

	// Target size for rectification. Ignored when PreserveScale is set,
	// which sizes the output from the detected quad's edge lengths.
	TargetWidth   int
	TargetHeight  int
	PreserveScale bool

	// StrictBoundary requires the detected sheet to dominate the frame.
	StrictBoundary bool

	// Workers bounds concurrent section recognition. When above 1 the
	// recognizer must be safe for concurrent use.
	Workers int
}

func (o *Options) setDefaults() {
	if o.Mode == "" {
		o.Mode = ModeTemplate
	}
	if o.Columns <= 0 {
		o.Columns = 33
	}
	if o.Rows <= 0 {
		o.Rows = 24
	}
	if o.ConfFloor <= 0 {
		o.ConfFloor = 0.15
	}
	if o.IoU <= 0 {
		o.IoU = segment.DefaultIoUThreshold
	}
	if o.TargetWidth <= 0 {
		o.TargetWidth = rectify.DefaultWidth
	}
	if o.TargetHeight <= 0 {
		o.TargetHeight = rectify.DefaultHeight
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
}

// Section is one extracted region with its recognized text and crop.
type Section struct {
	Region segment.Region
	Text   string
	// HasText distinguishes "recognized as empty" from "never
	// recognized": it is false when recognition was skipped or failed.
	HasText bool
	Image   *image.NRGBA
}

// GridCell is one row slot inside a column.
type GridCell struct {
	Index   int
	Region  segment.Region
	Text    string
	HasText bool
}

// GridColumn is one indexed column with its row cells.
type GridColumn struct {
	Index  int
	Region segment.Region
	Rows   []GridCell
}

// Grid is the table broken into indexed columns and rows. All region
// boxes are in rectified-sheet coordinates.
type Grid struct {
	Columns []GridColumn
}

// Result is the outcome of one sheet run.
type Result struct {
	// Aligned is the rectified sheet, or the original image when
	// rectification had to be skipped.
	Aligned *image.NRGBA

	TotalSections int
	Sections      []Section
	Grid          *Grid

	// OverflowTruncated counts grid candidates dropped because they
	// exceeded the column or row budget.
	OverflowTruncated int

	// UsedFallbackQuad is set when no document boundary was found and
	// the inset image frame was rectified instead.
	UsedFallbackQuad bool

	// Rectified is false when perspective removal failed and extraction
	// ran on the unwarped image.
	Rectified bool
}

// Pipeline runs the sheet extraction stages in order. Construct with New.
type Pipeline struct {
	opts   Options
	bd     *boundary.Detector
	tables *segment.LineExtractor
	colDet detect.Detector
	rowDet detect.Detector
	rec    ocr.Recognizer
	log    *logging.Logger
}

// New builds a Pipeline. rec may be nil, in which case sections are
// extracted and cropped but carry no text.
func New(opts Options, rec ocr.Recognizer, log *logging.Logger) *Pipeline {
	opts.setDefaults()

	bd := boundary.New(log)
	if opts.StrictBoundary {
		bd = boundary.NewStrict(log)
	}
	if opts.Template == nil {
		opts.Template = segment.DefaultTemplate()
	}

	return &Pipeline{
		opts:   opts,
		bd:     bd,
		tables: segment.NewLineExtractor(log),
		colDet: detect.NewRulingDetector(detect.Columns),
		rowDet: detect.NewRulingDetector(detect.Rows),
		rec:    rec,
		log:    log,
	}
}

// SetDetectors swaps the column and row detectors, for callers plugging
// in an external inference backend.
func (p *Pipeline) SetDetectors(cols, rows detect.Detector) {
	p.colDet = cols
	p.rowDet = rows
}

// Run executes the full pipeline on img.
func (p *Pipeline) Run(ctx context.Context, img image.Image) (*Result, error) {
	res := &Result{}

	quad, found := p.bd.Detect(img)
	res.UsedFallbackQuad = !found

	w, h := p.opts.TargetWidth, p.opts.TargetHeight
	if p.opts.PreserveScale {
		w, h = rectify.TargetFromQuad(quad)
	}

	aligned, err := rectify.Rectify(img, quad, w, h)
	if err != nil {
		var ge *geometry.GeometryError
		if !errors.As(err, &ge) {
			return nil, err
		}
		// Degenerate geometry is survivable: extract from the unwarped
		// image instead.
		p.log.Warn("rectification failed, continuing unwarped", "err", err)
		aligned = flatten(img)
		w, h = aligned.Bounds().Dx(), aligned.Bounds().Dy()
	} else {
		res.Rectified = true
	}
	res.Aligned = aligned

	var sections []segment.Region
	var tableBox geometry.Box
	switch p.opts.Mode {
	case ModeTemplate:
		sections = p.opts.Template.Extract(w, h)
		tableBox = findTableBox(sections)
	case ModeDetector:
		tables := p.tables.Extract(aligned)
		sections = tables
		tableBox = findTableBox(tables)
	default:
		return nil, fmt.Errorf("pipeline: unknown mode %q", p.opts.Mode)
	}

	res.Sections, err = p.recognizeSections(ctx, aligned, sections)
	if err != nil {
		return nil, err
	}
	res.TotalSections = len(res.Sections)

	if !tableBox.Empty() {
		grid, overflow, err := p.extractGrid(ctx, aligned, tableBox)
		if err != nil {
			return nil, err
		}
		res.Grid = grid
		res.OverflowTruncated = overflow
	}

	p.log.Info("run complete",
		"sections", res.TotalSections,
		"rectified", res.Rectified,
		"fallback_quad", res.UsedFallbackQuad,
		"overflow", res.OverflowTruncated)
	return res, nil
}

// recognizeSections crops every region and recognizes its text with a
// bounded worker group. Results land at their input index, so output
// order is deterministic regardless of worker scheduling.
func (p *Pipeline) recognizeSections(ctx context.Context, sheet *image.NRGBA, regions []segment.Region) ([]Section, error) {
	out := make([]Section, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i, r := range regions {
		i, r := i, r
		g.Go(func() error {
			crop := imaging.MaskedCrop(sheet, r.Box, r.Mask)
			text, has := p.recognize(gctx, crop, r)
			out[i] = Section{Region: r, Text: text, HasText: has, Image: crop}
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recognize runs OCR on one crop. Recognition failures degrade to empty
// text so a single bad crop cannot fail the sheet.
func (p *Pipeline) recognize(ctx context.Context, crop *image.NRGBA, r segment.Region) (string, bool) {
	if p.rec == nil {
		return "", false
	}
	prepared := ocr.PrepareRegion(crop, r.Kind)
	text, err := p.rec.Recognize(ctx, prepared, ocr.ModeForKind(r.Kind))
	if err != nil {
		p.log.Warn("recognition failed", "region", r.ID, "err", err)
		return "", false
	}
	return text, true
}

// extractGrid runs the column and row detectors over the table area and
// assigns grid indices. All returned boxes are in sheet coordinates.
func (p *Pipeline) extractGrid(ctx context.Context, sheet *image.NRGBA, tableBox geometry.Box) (*Grid, int, error) {
	sheetW := sheet.Bounds().Dx()
	sheetH := sheet.Bounds().Dy()

	tableCrop := imaging.Crop(sheet, tableBox)
	cands, err := p.colDet.Detect(ctx, tableCrop, p.opts.ConfFloor)
	if err != nil {
		return nil, 0, fmt.Errorf("pipeline: column detection: %w", err)
	}

	colFilter := segment.ColumnFilter
	colFilter.MinConfidence = p.opts.ConfFloor

	colRegions := candidateRegions(cands, segment.KindColumn, tableBox)
	cols, overflow := segment.ExtractGrid(colRegions, colFilter,
		p.opts.IoU, sheetW, sheetH, p.opts.Columns, segment.SortColumns)
	if overflow > 0 {
		p.log.Warn("column overflow truncated", "dropped", overflow, "budget", p.opts.Columns)
	}

	grid := &Grid{Columns: make([]GridColumn, 0, len(cols))}
	for _, col := range cols {
		region := withID(col.Region, fmt.Sprintf("col_%02d", col.Index))
		rows, dropped, err := p.extractRows(ctx, sheet, region)
		if err != nil {
			return nil, 0, err
		}
		overflow += dropped
		grid.Columns = append(grid.Columns, GridColumn{
			Index:  col.Index,
			Region: region,
			Rows:   rows,
		})
	}
	return grid, overflow, nil
}

func (p *Pipeline) extractRows(ctx context.Context, sheet *image.NRGBA, col segment.Region) ([]GridCell, int, error) {
	colCrop := imaging.Crop(sheet, col.Box)
	cands, err := p.rowDet.Detect(ctx, colCrop, p.opts.ConfFloor)
	if err != nil {
		return nil, 0, fmt.Errorf("pipeline: row detection: %w", err)
	}

	rowFilter := segment.RowFilter
	rowFilter.MinConfidence = p.opts.ConfFloor

	rowRegions := candidateRegions(cands, segment.KindRow, col.Box)
	rows, overflow := segment.ExtractGrid(rowRegions, rowFilter,
		p.opts.IoU, col.Box.W, col.Box.H, p.opts.Rows, segment.SortRows)
	if overflow > 0 {
		p.log.Warn("row overflow truncated", "column", col.ID, "dropped", overflow, "budget", p.opts.Rows)
	}

	cells := make([]GridCell, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		r := withID(row.Region, fmt.Sprintf("%s_row_%02d", col.ID, row.Index))
		crop := imaging.MaskedCrop(sheet, r.Box, r.Mask)
		text, has := p.recognize(ctx, crop, r)
		cells = append(cells, GridCell{Index: row.Index, Region: r, Text: text, HasText: has})
	}
	return cells, overflow, nil
}

// candidateRegions converts raw detections into regions, translating
// their boxes from crop coordinates into sheet coordinates.
func candidateRegions(cands []detect.Candidate, kind segment.Kind, origin geometry.Box) []segment.Region {
	out := make([]segment.Region, 0, len(cands))
	for _, c := range cands {
		out = append(out, segment.Region{
			ID:         c.Label,
			Kind:       kind,
			Box:        c.Box.Translate(origin.X, origin.Y),
			Confidence: c.Confidence,
			Source:     segment.SourceDetector,
			Mask:       c.Mask,
		})
	}
	return out
}

// findTableBox returns the largest table-kind region's box, or a zero
// box when there is none.
func findTableBox(regions []segment.Region) geometry.Box {
	var best geometry.Box
	for _, r := range regions {
		if r.Kind == segment.KindTable && r.Box.Area() > best.Area() {
			best = r.Box
		}
	}
	return best
}

func withID(r segment.Region, id string) segment.Region {
	r.ID = id
	return r
}

func flatten(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			out.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return out
}
