package segment

import "sort"

// RoleFilter holds the acceptance thresholds for one grid role. Area
// fractions are relative to the full frame; aspect is width over height.
type RoleFilter struct {
	MinConfidence float64
	MinAreaFrac   float64
	MaxAreaFrac   float64
	MinAspect     float64
	MaxAspect     float64
}

// ColumnFilter accepts tall, narrow detections. The wide aspect range
// tolerates both hairline columns and merged double-columns; anything
// covering most of the frame is a table outline, not a column.
// MinConfidence here is the default floor; callers with a configured
// floor overwrite it before filtering.
var ColumnFilter = RoleFilter{
	MinConfidence: 0.15,
	MinAreaFrac:   0.001,
	MaxAreaFrac:   0.8,
	MinAspect:     0.02,
	MaxAspect:     10,
}

// RowFilter accepts wide, short detections within a column crop.
var RowFilter = RoleFilter{
	MinConfidence: 0.15,
	MinAreaFrac:   0.001,
	MaxAreaFrac:   0.5,
	MinAspect:     1.5,
	MaxAspect:     0, // unbounded
}

// Accept reports whether a region passes the filter inside a width x
// height frame.
func (f RoleFilter) Accept(r Region, width, height int) bool {
	if r.Confidence < f.MinConfidence {
		return false
	}
	frac := r.AreaFrac(width, height)
	if frac < f.MinAreaFrac || frac > f.MaxAreaFrac {
		return false
	}
	aspect := r.Box.Aspect()
	if aspect < f.MinAspect {
		return false
	}
	if f.MaxAspect > 0 && aspect > f.MaxAspect {
		return false
	}
	return true
}

// SortColumns orders regions left to right.
func SortColumns(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Box.X < regions[j].Box.X
	})
}

// SortRows orders regions top to bottom.
func SortRows(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Box.Y < regions[j].Box.Y
	})
}

// ExtractGrid resolves a raw candidate set into at most n indexed grid
// slots for one axis. Overlap suppression at the iou threshold runs
// before the role filter, so duplicate detections are discarded before
// their shape is judged; survivors are filtered, spatially sorted with
// sortFn, and numbered 1..n. The int return is the overflow count.
func ExtractGrid(candidates []Region, filter RoleFilter, iou float64, width, height, n int,
	sortFn func([]Region)) ([]Indexed, int) {

	kept := Suppress(candidates, iou)

	filtered := kept[:0:0]
	for _, r := range kept {
		if filter.Accept(r, width, height) {
			filtered = append(filtered, r)
		}
	}

	sortFn(filtered)
	return Assign(filtered, n)
}
