package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetgrid/sheetgrid/internal/detect"
	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/ocr"
)

// fakeRecognizer returns canned text and records call counts.
type fakeRecognizer struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ image.Image, _ ocr.Mode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

// capturingRecognizer records every image handed to it.
type capturingRecognizer struct {
	mu     sync.Mutex
	images []image.Image
}

func (c *capturingRecognizer) Recognize(_ context.Context, img image.Image, _ ocr.Mode) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images = append(c.images, img)
	return "", nil
}

// fakeDetector returns a fixed candidate set regardless of input.
type fakeDetector struct {
	cands []detect.Candidate
}

func (f *fakeDetector) Detect(context.Context, image.Image, float64) ([]detect.Candidate, error) {
	return f.cands, nil
}

func blankSheet(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{245, 245, 245, 255})
		}
	}
	return img
}

func TestRunTemplateMode(t *testing.T) {
	rec := &fakeRecognizer{text: "hello"}
	p := New(Options{Mode: ModeTemplate, Workers: 4}, rec, nil)
	p.SetDetectors(&fakeDetector{}, &fakeDetector{})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)

	assert.Equal(t, 9, res.TotalSections)
	assert.True(t, res.Rectified)
	assert.True(t, res.UsedFallbackQuad, "flat sheet has no boundary to find")
	assert.Equal(t, 1200, res.Aligned.Bounds().Dx())
	assert.Equal(t, 900, res.Aligned.Bounds().Dy())

	for _, s := range res.Sections {
		assert.True(t, s.HasText, s.Region.ID)
		assert.Equal(t, "hello", s.Text)
		require.NotNil(t, s.Image)
		assert.Equal(t, s.Region.Box.W, s.Image.Bounds().Dx())
	}
	assert.Equal(t, 9, rec.calls)

	// The template names a table, so the grid is present even though the
	// fake detectors found nothing in it.
	require.NotNil(t, res.Grid)
	assert.Empty(t, res.Grid.Columns)
	assert.Zero(t, res.OverflowTruncated)
}

func TestRunDetectorModeEmptySheet(t *testing.T) {
	p := New(Options{Mode: ModeDetector}, nil, nil)

	res, err := p.Run(context.Background(), blankSheet(400, 300))
	require.NoError(t, err)

	assert.Zero(t, res.TotalSections)
	assert.Empty(t, res.Sections)
	assert.Nil(t, res.Grid, "no table region, no grid")
}

func TestRunColumnOverflowTruncated(t *testing.T) {
	// 40 disjoint column candidates against a 33-column budget.
	var cands []detect.Candidate
	for i := 0; i < 40; i++ {
		cands = append(cands, detect.Candidate{
			Label:      fmt.Sprintf("band_%d", i),
			Confidence: 0.5,
			Box:        geometry.Box{X: i * 25, Y: 0, W: 20, H: 500},
		})
	}

	p := New(Options{Mode: ModeTemplate}, nil, nil)
	p.SetDetectors(&fakeDetector{cands: cands}, &fakeDetector{})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)
	require.NotNil(t, res.Grid)

	assert.Len(t, res.Grid.Columns, 33)
	assert.Equal(t, 7, res.OverflowTruncated)
	for i, col := range res.Grid.Columns {
		assert.Equal(t, i+1, col.Index)
		assert.Equal(t, fmt.Sprintf("col_%02d", i+1), col.Region.ID)
		if i > 0 {
			assert.Greater(t, col.Region.Box.X, res.Grid.Columns[i-1].Region.Box.X,
				"columns numbered left to right")
		}
	}
}

func TestRunConfiguredConfFloorReachesFilters(t *testing.T) {
	// Five disjoint low-confidence columns: below the stock 0.15 floor,
	// above the configured one. A configured floor must win.
	var cands []detect.Candidate
	for i := 0; i < 5; i++ {
		cands = append(cands, detect.Candidate{
			Label:      fmt.Sprintf("faint_%d", i),
			Confidence: 0.10,
			Box:        geometry.Box{X: i * 100, Y: 0, W: 30, H: 500},
		})
	}

	p := New(Options{Mode: ModeTemplate, ConfFloor: 0.05}, nil, nil)
	p.SetDetectors(&fakeDetector{cands: cands}, &fakeDetector{})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)
	require.NotNil(t, res.Grid)
	assert.Len(t, res.Grid.Columns, 5)
}

func TestRunGridRows(t *testing.T) {
	colCands := []detect.Candidate{
		{Label: "c0", Confidence: 0.6, Box: geometry.Box{X: 50, Y: 0, W: 40, H: 500}},
	}
	rowCands := []detect.Candidate{
		{Label: "r0", Confidence: 0.6, Box: geometry.Box{X: 0, Y: 10, W: 40, H: 22}},
		{Label: "r1", Confidence: 0.6, Box: geometry.Box{X: 0, Y: 40, W: 40, H: 22}},
	}
	rec := &fakeRecognizer{text: "42"}

	p := New(Options{Mode: ModeTemplate}, rec, nil)
	p.SetDetectors(&fakeDetector{cands: colCands}, &fakeDetector{cands: rowCands})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)
	require.NotNil(t, res.Grid)
	require.Len(t, res.Grid.Columns, 1)

	col := res.Grid.Columns[0]
	require.Len(t, col.Rows, 2)
	for i, cell := range col.Rows {
		assert.Equal(t, i+1, cell.Index)
		assert.Equal(t, "42", cell.Text)
		assert.True(t, cell.HasText)
		// Row boxes are translated into sheet coordinates.
		assert.Equal(t, col.Region.Box.X, cell.Region.Box.X)
		assert.GreaterOrEqual(t, cell.Region.Box.Y, col.Region.Box.Y)
	}
}

func TestRunDetectorMaskLimitsCrop(t *testing.T) {
	// Mask keeps only the left half of the row cell; the right half must
	// be blacked out in the crop handed to recognition.
	mask := image.NewGray(image.Rect(0, 0, 40, 22))
	for y := 0; y < 22; y++ {
		for x := 0; x < 20; x++ {
			mask.SetGray(x, y, color.Gray{255})
		}
	}
	colCands := []detect.Candidate{
		{Label: "c0", Confidence: 0.6, Box: geometry.Box{X: 50, Y: 0, W: 40, H: 500}},
	}
	rowCands := []detect.Candidate{
		{Label: "r0", Confidence: 0.6, Box: geometry.Box{X: 0, Y: 10, W: 40, H: 22}, Mask: mask},
	}
	rec := &capturingRecognizer{}

	p := New(Options{Mode: ModeTemplate}, rec, nil)
	p.SetDetectors(&fakeDetector{cands: colCands}, &fakeDetector{cands: rowCands})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)
	require.NotNil(t, res.Grid)
	require.Len(t, res.Grid.Columns, 1)
	require.Len(t, res.Grid.Columns[0].Rows, 1)

	// Row cells are upscaled x2 during preparation; find that capture.
	var cell image.Image
	for _, img := range rec.images {
		if img.Bounds().Dx() == 80 && img.Bounds().Dy() == 44 {
			cell = img
		}
	}
	require.NotNil(t, cell, "row cell crop never reached recognition")

	bright, _, _, _ := cell.At(10, 20).RGBA()
	dark, _, _, _ := cell.At(70, 20).RGBA()
	assert.Greater(t, uint8(bright>>8), uint8(150), "masked-in half should keep the paper")
	assert.Less(t, uint8(dark>>8), uint8(80), "masked-out half should be blacked out")
}

func TestRunRecognitionFailureDegrades(t *testing.T) {
	rec := &fakeRecognizer{err: errors.New("engine crashed")}
	p := New(Options{Mode: ModeTemplate}, rec, nil)
	p.SetDetectors(&fakeDetector{}, &fakeDetector{})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err, "recognition failures must not fail the run")

	for _, s := range res.Sections {
		assert.False(t, s.HasText)
		assert.Empty(t, s.Text)
	}
}

func TestRunNilRecognizer(t *testing.T) {
	p := New(Options{Mode: ModeTemplate}, nil, nil)
	p.SetDetectors(&fakeDetector{}, &fakeDetector{})

	res, err := p.Run(context.Background(), blankSheet(600, 450))
	require.NoError(t, err)
	for _, s := range res.Sections {
		assert.False(t, s.HasText)
	}
}

func TestRunUnknownMode(t *testing.T) {
	p := New(Options{Mode: "freeform"}, nil, nil)
	_, err := p.Run(context.Background(), blankSheet(200, 150))
	assert.Error(t, err)
}
