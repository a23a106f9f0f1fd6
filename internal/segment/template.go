package segment

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// Confidence assigned to template-derived regions. Template layouts are
// hand-measured, so they rank above machine-detected candidates during
// overlap resolution.
const templateConfidence = 0.9

// DefaultPadding grows each template section slightly so tight layout
// measurements do not clip glyph edges.
const DefaultPadding = 2

// Section is one named area of a sheet layout, located by fractional
// coordinates so a single template scales to any rectified size.
type Section struct {
	Name   string  `json:"name"`
	Kind   Kind    `json:"kind"`
	XFrac  float64 `json:"x"`
	YFrac  float64 `json:"y"`
	WFrac  float64 `json:"w"`
	HFrac  float64 `json:"h"`
}

// Template is a fixed sheet layout.
type Template struct {
	Name     string    `json:"name"`
	Sections []Section `json:"sections"`
	Padding  int       `json:"padding"`
}

// DefaultTemplate returns the built-in layout for the standard logsheet
// form: a header with package and date fields, a dominant central data
// table, and the footer blocks for running hours, petroleum status, trip
// details, remarks and signatures.
func DefaultTemplate() *Template {
	return &Template{
		Name:    "logsheet",
		Padding: DefaultPadding,
		Sections: []Section{
			{Name: "package_info", Kind: KindPackage, XFrac: 0.85, YFrac: 0.055, WFrac: 0.15, HFrac: 0.067},
			{Name: "date_section", Kind: KindDate, XFrac: 0.85, YFrac: 0.128, WFrac: 0.15, HFrac: 0.044},
			{Name: "main_data_table", Kind: KindTable, XFrac: 0.042, YFrac: 0.167, WFrac: 0.916, HFrac: 0.611},
			{Name: "daily_running_hours", Kind: KindDigits, XFrac: 0.042, YFrac: 0.8, WFrac: 0.317, HFrac: 0.133},
			{Name: "petroleum_status", Kind: KindDigits, XFrac: 0.042, YFrac: 0.944, WFrac: 0.317, HFrac: 0.111},
			{Name: "pkg_trip_details", Kind: KindText, XFrac: 0.375, YFrac: 0.8, WFrac: 0.292, HFrac: 0.089},
			{Name: "shift_incharge", Kind: KindSignature, XFrac: 0.683, YFrac: 0.8, WFrac: 0.317, HFrac: 0.089},
			{Name: "remarks_section", Kind: KindText, XFrac: 0.375, YFrac: 0.9, WFrac: 0.458, HFrac: 0.089},
			{Name: "signatures", Kind: KindSignature, XFrac: 0.683, YFrac: 0.9, WFrac: 0.317, HFrac: 0.156},
		},
	}
}

// LoadTemplate reads a layout from a JSON file. Unknown kinds fall back
// to generic text so external templates degrade instead of failing.
func LoadTemplate(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	if len(t.Sections) == 0 {
		return nil, fmt.Errorf("template %s has no sections", path)
	}
	for i := range t.Sections {
		if t.Sections[i].Kind == "" {
			t.Sections[i].Kind = KindText
		}
	}
	return &t, nil
}

// Extract scales the template to a rectified width x height frame and
// returns one region per section. Each scaled box is padded then clamped
// to the frame; sections that collapse to nothing (possible on very
// small frames) are dropped.
func (t *Template) Extract(width, height int) []Region {
	pad := t.Padding
	regions := make([]Region, 0, len(t.Sections))
	for _, s := range t.Sections {
		box := geometry.Box{
			X: int(s.XFrac * float64(width)),
			Y: int(s.YFrac * float64(height)),
			W: int(s.WFrac * float64(width)),
			H: int(s.HFrac * float64(height)),
		}
		box = box.Pad(pad).Clamp(width, height)
		if box.Empty() {
			continue
		}
		regions = append(regions, Region{
			ID:         s.Name,
			Kind:       s.Kind,
			Box:        box,
			Confidence: templateConfidence,
			Source:     SourceTemplate,
		})
	}
	return regions
}
