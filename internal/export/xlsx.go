package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/pipeline"
)

const gridSheet = "Grid"

// WriteXLSX writes the extracted grid as a workbook: one spreadsheet
// column per grid column, one row per cell, recognized text as the cell
// value. Cells whose text could not be recognized get the original crop
// embedded as a picture instead, so nothing extracted is lost from the
// workbook even when the engine fails on handwriting.
func WriteXLSX(path string, res *pipeline.Result) error {
	if res.Grid == nil {
		return fmt.Errorf("export: no grid to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(gridSheet); err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}

	for _, col := range res.Grid.Columns {
		header, err := excelize.CoordinatesToCellName(col.Index, 1)
		if err != nil {
			return fmt.Errorf("export: column %d: %w", col.Index, err)
		}
		if err := f.SetCellValue(gridSheet, header, col.Region.ID); err != nil {
			return err
		}

		for _, cell := range col.Rows {
			name, err := excelize.CoordinatesToCellName(col.Index, cell.Index+1)
			if err != nil {
				return fmt.Errorf("export: cell %s: %w", cell.Region.ID, err)
			}
			if cell.HasText && cell.Text != "" {
				if err := f.SetCellValue(gridSheet, name, cell.Text); err != nil {
					return err
				}
				continue
			}
			if err := embedCrop(f, name, res, cell); err != nil {
				return err
			}
		}
	}

	if idx, err := f.GetSheetIndex(gridSheet); err == nil {
		f.SetActiveSheet(idx)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("export: save %s: %w", path, err)
	}
	return nil
}

func embedCrop(f *excelize.File, cellName string, res *pipeline.Result, cell pipeline.GridCell) error {
	crop := imaging.Crop(res.Aligned, cell.Region.Box)
	buf, err := imaging.EncodePNG(crop)
	if err != nil {
		return fmt.Errorf("export: encode crop %s: %w", cell.Region.ID, err)
	}
	pic := &excelize.Picture{
		Extension: ".png",
		File:      buf,
		Format:    &excelize.GraphicOptions{AutoFit: true},
	}
	if err := f.AddPictureFromBytes(gridSheet, cellName, pic); err != nil {
		return fmt.Errorf("export: embed crop %s: %w", cell.Region.ID, err)
	}
	return nil
}
