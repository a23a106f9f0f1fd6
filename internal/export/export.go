// Package export writes pipeline results to disk: the aligned sheet,
// per-section crops and text, a machine-readable summary, an annotated
// overlay, and an XLSX workbook of the extracted grid.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
	"github.com/sheetgrid/sheetgrid/internal/imaging"
	"github.com/sheetgrid/sheetgrid/internal/pipeline"
	"github.com/sheetgrid/sheetgrid/internal/segment"
)

// Summary is the JSON manifest written alongside the image artifacts.
type Summary struct {
	TotalSections     int              `json:"total_sections"`
	Rectified         bool             `json:"rectified"`
	UsedFallbackQuad  bool             `json:"used_fallback_quad"`
	OverflowTruncated int              `json:"overflow_truncated"`
	Sections          []SectionSummary `json:"sections"`
	GridColumns       int              `json:"grid_columns,omitempty"`
}

// SectionSummary describes one extracted section without its pixels.
type SectionSummary struct {
	ID         string         `json:"id"`
	Kind       segment.Kind   `json:"kind"`
	Box        geometry.Box   `json:"box"`
	Confidence float64        `json:"confidence"`
	Source     segment.Source `json:"source"`
	TextLength int            `json:"text_length"`
	HasText    bool           `json:"has_text"`
}

// Write stores all artifacts for a run under dir, creating it if
// needed. Files written: aligned.png, overlay.png, one <id>.png per
// section, one <id>.txt per section with recognized text, summary.json,
// and grid.xlsx when the run produced a grid.
func Write(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}

	if err := imaging.SavePNG(filepath.Join(dir, "aligned.png"), res.Aligned); err != nil {
		return err
	}
	if err := imaging.SavePNG(filepath.Join(dir, "overlay.png"), Overlay(res)); err != nil {
		return err
	}

	for _, s := range res.Sections {
		if s.Image != nil {
			if err := imaging.SavePNG(filepath.Join(dir, s.Region.ID+".png"), s.Image); err != nil {
				return err
			}
		}
		if s.HasText {
			path := filepath.Join(dir, s.Region.ID+".txt")
			if err := os.WriteFile(path, []byte(s.Text), 0o644); err != nil {
				return fmt.Errorf("export: write %s: %w", path, err)
			}
		}
	}

	if res.Grid != nil {
		if err := WriteXLSX(filepath.Join(dir, "grid.xlsx"), res); err != nil {
			return err
		}
	}

	return writeSummary(filepath.Join(dir, "summary.json"), res)
}

func writeSummary(path string, res *pipeline.Result) error {
	sum := Summary{
		TotalSections:     res.TotalSections,
		Rectified:         res.Rectified,
		UsedFallbackQuad:  res.UsedFallbackQuad,
		OverflowTruncated: res.OverflowTruncated,
		Sections:          make([]SectionSummary, 0, len(res.Sections)),
	}
	if res.Grid != nil {
		sum.GridColumns = len(res.Grid.Columns)
	}
	for _, s := range res.Sections {
		sum.Sections = append(sum.Sections, SectionSummary{
			ID:         s.Region.ID,
			Kind:       s.Region.Kind,
			Box:        s.Region.Box,
			Confidence: s.Region.Confidence,
			Source:     s.Region.Source,
			TextLength: len(s.Text),
			HasText:    s.HasText,
		})
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("export: marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
