package export

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/pipeline"
	"github.com/sheetgrid/sheetgrid/internal/segment"
)

func sampleResult() *pipeline.Result {
	aligned := image.NewNRGBA(image.Rect(0, 0, 300, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 300; x++ {
			aligned.SetNRGBA(x, y, color.NRGBA{240, 240, 240, 255})
		}
	}

	crop := image.NewNRGBA(image.Rect(0, 0, 80, 40))
	sections := []pipeline.Section{
		{
			Region: segment.Region{
				ID: "date_section", Kind: segment.KindDate,
				Box:        geometry.Box{X: 200, Y: 10, W: 80, H: 40},
				Confidence: 0.9, Source: segment.SourceTemplate,
			},
			Text: "12/03/2024", HasText: true, Image: crop,
		},
		{
			Region: segment.Region{
				ID: "signatures", Kind: segment.KindSignature,
				Box:        geometry.Box{X: 10, Y: 150, W: 100, H: 40},
				Confidence: 0.9, Source: segment.SourceTemplate,
			},
			Image: crop,
		},
	}

	return &pipeline.Result{
		Aligned:       aligned,
		TotalSections: len(sections),
		Sections:      sections,
		Rectified:     true,
		Grid: &pipeline.Grid{Columns: []pipeline.GridColumn{
			{
				Index: 1,
				Region: segment.Region{
					ID: "col_01", Kind: segment.KindColumn,
					Box: geometry.Box{X: 20, Y: 60, W: 40, H: 80},
				},
				Rows: []pipeline.GridCell{
					{
						Index: 1, Text: "7.5", HasText: true,
						Region: segment.Region{ID: "col_01_row_01", Kind: segment.KindRow,
							Box: geometry.Box{X: 20, Y: 60, W: 40, H: 20}},
					},
					{
						Index: 2, // unreadable handwriting, image fallback
						Region: segment.Region{ID: "col_01_row_02", Kind: segment.KindRow,
							Box: geometry.Box{X: 20, Y: 85, W: 40, H: 20}},
					},
				},
			},
		}},
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()
	require.NoError(t, Write(dir, res))

	for _, name := range []string{
		"aligned.png", "overlay.png", "summary.json", "grid.xlsx",
		"date_section.png", "date_section.txt", "signatures.png",
	} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}

	// No text file for the unrecognized section.
	_, err := os.Stat(filepath.Join(dir, "signatures.txt"))
	assert.True(t, os.IsNotExist(err))

	text, err := os.ReadFile(filepath.Join(dir, "date_section.txt"))
	require.NoError(t, err)
	assert.Equal(t, "12/03/2024", string(text))
}

func TestWriteSummary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, sampleResult()))

	data, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	require.NoError(t, err)

	var sum Summary
	require.NoError(t, json.Unmarshal(data, &sum))

	assert.Equal(t, 2, sum.TotalSections)
	assert.True(t, sum.Rectified)
	assert.Equal(t, 1, sum.GridColumns)
	require.Len(t, sum.Sections, 2)

	assert.Equal(t, "date_section", sum.Sections[0].ID)
	assert.Equal(t, 10, sum.Sections[0].TextLength)
	assert.True(t, sum.Sections[0].HasText)
	assert.False(t, sum.Sections[1].HasText)
	assert.Zero(t, sum.Sections[1].TextLength)
}

func TestWriteXLSXCellValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.xlsx")
	res := sampleResult()
	require.NoError(t, WriteXLSX(path, res))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue(gridSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "col_01", header)

	v, err := f.GetCellValue(gridSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "7.5", v)

	// The unreadable cell holds a picture, not text.
	v, err = f.GetCellValue(gridSheet, "A3")
	require.NoError(t, err)
	assert.Empty(t, v)
	pics, err := f.GetPictures(gridSheet, "A3")
	require.NoError(t, err)
	assert.Len(t, pics, 1)
}

func TestWriteXLSXWithoutGrid(t *testing.T) {
	res := sampleResult()
	res.Grid = nil
	err := WriteXLSX(filepath.Join(t.TempDir(), "x.xlsx"), res)
	assert.Error(t, err)
}

func TestOverlayDimensionsAndStroke(t *testing.T) {
	res := sampleResult()
	out := Overlay(res)

	assert.Equal(t, res.Aligned.Bounds(), out.Bounds())

	// The date section's top-left stroke must differ from the paper.
	box := res.Sections[0].Region.Box
	// Sample mid-edge, away from the label background.
	c := out.RGBAAt(box.X+box.W/2, box.Y)
	assert.NotEqual(t, color.RGBA{240, 240, 240, 255}, c)
}

func TestLabelPaletteDistinct(t *testing.T) {
	p := labelPalette(12)
	require.Len(t, p, 12)
	seen := map[color.RGBA]bool{}
	for _, c := range p {
		assert.False(t, seen[c], "duplicate palette color %v", c)
		seen[c] = true
	}
	assert.Empty(t, labelPalette(0))
}
