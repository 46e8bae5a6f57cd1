package extract

import "sort"

// SizeHistogram counts accepted lines per rounded font size.
type SizeHistogram map[float64]int

// SizeCount is one histogram bucket.
type SizeCount struct {
	Size  float64 `json:"size"`
	Count int     `json:"count"`
}

// Total returns the number of lines counted.
func (h SizeHistogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// BodySize returns the most frequent size. Ties go to the smaller size.
// Zero when the histogram is empty.
func (h SizeHistogram) BodySize() float64 {
	var best float64
	bestCount := 0
	for size, c := range h {
		if c > bestCount || (c == bestCount && size < best) {
			best, bestCount = size, c
		}
	}
	return best
}

// Sorted returns the buckets ascending by size.
func (h SizeHistogram) Sorted() []SizeCount {
	out := make([]SizeCount, 0, len(h))
	for size, c := range h {
		out = append(out, SizeCount{Size: size, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out
}
