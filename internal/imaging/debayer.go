package imaging

// Debayer interpolates a mosaic from DecodeMosaic into three planes (R, G, B)
// by averaging same-colour neighbours in each 3x3 window.
func Debayer(mosaic *PixelBuffer) *PixelBuffer {
	w, h := mosaic.Width, mosaic.Height
	out := NewPixelBuffer(w, h, 3)
	colors := [3]byte{Red, Green, Blue}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			own := rggbColor(x, y)
			for p, c := range colors {
				if own == c {
					out.Set(x, y, p, mosaic.At(x, y, 0))
					continue
				}
				var sum int64
				var n int64
				for dy := -1; dy <= 1; dy++ {
					yy := y + dy
					if yy < 0 || yy >= h {
						continue
					}
					for dx := -1; dx <= 1; dx++ {
						xx := x + dx
						if xx < 0 || xx >= w || rggbColor(xx, yy) != c {
							continue
						}
						sum += int64(mosaic.At(xx, yy, 0))
						n++
					}
				}
				if n > 0 {
					out.Set(x, y, p, int32(sum/n))
				}
			}
		}
	}
	return out
}
