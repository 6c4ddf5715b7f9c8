package imaging

// Variant returns an element-by-element copy of b as nested []any slices
// indexed [x][y] for rank 2 and [x][y][plane] for rank 3.
func Variant(b *PixelBuffer) any {
	if b.Rank() == 2 {
		out := make([][]any, b.Width)
		for x := range out {
			col := make([]any, b.Height)
			for y := range col {
				col[y] = b.At(x, y, 0)
			}
			out[x] = col
		}
		return out
	}
	out := make([][][]any, b.Width)
	for x := range out {
		col := make([][]any, b.Height)
		for y := range col {
			px := make([]any, b.Planes)
			for p := range px {
				px[p] = b.At(x, y, p)
			}
			col[y] = px
		}
		out[x] = col
	}
	return out
}
