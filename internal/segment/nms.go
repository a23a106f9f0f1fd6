package segment

import (
	"sort"

	"github.com/sheetgrid/sheetgrid/internal/geometry"
)

// DefaultIoUThreshold is the overlap level at which two regions are
// considered the same physical area.
const DefaultIoUThreshold = 0.5

// Suppress resolves overlapping regions by greedy non-maximum
// suppression: regions are visited in descending confidence order and a
// region is kept only if its IoU with every already-kept region stays at
// or below threshold. Ties in confidence preserve the input order, so
// the result is deterministic for a fixed input.
//
// The input slice is not modified.
func Suppress(regions []Region, threshold float64) []Region {
	if len(regions) <= 1 {
		return append([]Region(nil), regions...)
	}

	ordered := append([]Region(nil), regions...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Confidence > ordered[j].Confidence
	})

	kept := make([]Region, 0, len(ordered))
	for _, cand := range ordered {
		overlaps := false
		for _, k := range kept {
			if geometry.IoU(cand.Box, k.Box) > threshold {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, cand)
		}
	}
	return kept
}
