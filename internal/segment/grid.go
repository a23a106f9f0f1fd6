package segment

// Indexed pairs a region with its position in a fixed-size grid axis.
type Indexed struct {
	Index  int
	Region Region
}

// Assign maps spatially sorted regions onto a fixed number of slots,
// numbering them 1..n in order. Regions beyond the slot count are
// truncated; the second return value reports how many were dropped so
// the caller can surface the overflow without failing the run.
func Assign(sorted []Region, n int) ([]Indexed, int) {
	if n <= 0 {
		return nil, len(sorted)
	}

	limit := len(sorted)
	overflow := 0
	if limit > n {
		overflow = limit - n
		limit = n
	}

	out := make([]Indexed, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, Indexed{Index: i + 1, Region: sorted[i]})
	}
	return out, overflow
}
