package imaging

import "sort"

// Statistics summarises every sample of a buffer.
type Statistics struct {
	Min    int32 `yaml:"min"    json:"min"`
	Max    int32 `yaml:"max"    json:"max"`
	Mean   int32 `yaml:"mean"   json:"mean"`
	Median int32 `yaml:"median" json:"median"`
	Count  int   `yaml:"count"  json:"count"`
}

// Stats computes min, max and the truncated integer mean in one pass, and the
// median from a sorted copy. An even count averages the two middle samples,
// rounding down.
func Stats(samples []int32) Statistics {
	n := len(samples)
	if n == 0 {
		return Statistics{}
	}
	st := Statistics{Min: samples[0], Max: samples[0], Count: n}
	var sum int64
	for _, v := range samples {
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
		sum += int64(v)
	}
	st.Mean = int32(sum / int64(n))

	sorted := make([]int32, n)
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	mid := n / 2
	if n%2 == 0 {
		st.Median = int32((int64(sorted[mid]) + int64(sorted[mid-1])) / 2)
	} else {
		st.Median = sorted[mid]
	}
	return st
}

// BufferStats computes Stats over all planes of b.
func BufferStats(b *PixelBuffer) Statistics {
	return Stats(b.Pix)
}
